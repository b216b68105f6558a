package citation

import "testing"

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantCount int
		wantPages []int
	}{
		{
			name:      "no markers",
			text:      "The report covers revenue growth in detail.",
			wantCount: 0,
		},
		{
			name:      "standalone citation",
			text:      "Revenue grew by 12% (p. 4).",
			wantCount: 1,
			wantPages: []int{4},
		},
		{
			name:      "inline quote citation",
			text:      `The author notes "growth was uneven", p. 7) across regions.`,
			wantCount: 1,
			wantPages: []int{7},
		},
		{
			name:      "range citation",
			text:      "The methodology is described at length (p. 12-15).",
			wantCount: 1,
			wantPages: []int{12},
		},
		{
			name:      "multiple citations",
			text:      "See the summary (p. 2) and the appendix (p. 30).",
			wantCount: 2,
			wantPages: []int{2, 30},
		},
		{
			name:      "whitespace variants",
			text:      "Results (p.9) and ( not a marker ).",
			wantCount: 1,
			wantPages: []int{9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			markers := ParseMarkers(tt.text)

			if len(markers) != tt.wantCount {
				t.Fatalf("marker count = %d, want %d", len(markers), tt.wantCount)
			}
			for i, want := range tt.wantPages {
				if markers[i].Page != want {
					t.Errorf("marker[%d].Page = %d, want %d", i, markers[i].Page, want)
				}
			}
		})
	}
}

func TestParseMarkersRange(t *testing.T) {
	markers := ParseMarkers("Details in the methods section (p. 12-15).")
	if len(markers) != 1 {
		t.Fatalf("marker count = %d, want 1", len(markers))
	}
	if markers[0].Page != 12 || markers[0].EndPage != 15 {
		t.Errorf("range = %d-%d, want 12-15", markers[0].Page, markers[0].EndPage)
	}
}
