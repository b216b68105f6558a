package citation

import (
	"strings"
	"testing"
)

func TestFormatResponse(t *testing.T) {
	docs := []SourceDocument{
		{Filename: "report.pdf", RelPath: "user-1/sess-1/report.pdf"},
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "standalone citation becomes link",
			text: "Revenue grew by 12% (p. 4).",
			want: "Revenue grew by 12% ([p. 4](/public/user-1/sess-1/report.pdf#page=4)).",
		},
		{
			name: "inline quote citation becomes link",
			text: `The author notes ("growth was uneven", p. 7).`,
			want: `The author notes ("growth was uneven", [p. 7](/public/user-1/sess-1/report.pdf#page=7)).`,
		},
		{
			name: "range links to the first page",
			text: "See the methods (p. 12-15).",
			want: "See the methods ([p. 12-15](/public/user-1/sess-1/report.pdf#page=12)).",
		},
		{
			name: "text without markers untouched",
			text: "No citations here.",
			want: "No citations here.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatResponse(tt.text, docs)
			if got != tt.want {
				t.Errorf("FormatResponse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatResponseIdempotent(t *testing.T) {
	docs := []SourceDocument{
		{Filename: "report.pdf", RelPath: "u/s/report.pdf"},
	}
	text := `Summary (p. 2) with a quote ("cited", p. 5) and methods (p. 12-15).`

	once := FormatResponse(text, docs)
	twice := FormatResponse(once, docs)

	if once != twice {
		t.Errorf("second pass changed text:\nonce:  %q\ntwice: %q", once, twice)
	}
	if !strings.Contains(once, "#page=2") || !strings.Contains(once, "#page=5") || !strings.Contains(once, "#page=12") {
		t.Errorf("expected page anchors in %q", once)
	}
}

func TestFormatResponseNoDocuments(t *testing.T) {
	text := "Growth was strong (p. 4)."

	if got := FormatResponse(text, nil); got != text {
		t.Errorf("expected untouched text, got %q", got)
	}
	if got := FormatResponse(text, []SourceDocument{{Filename: "x.pdf"}}); got != text {
		t.Errorf("expected untouched text for doc without path, got %q", got)
	}
}

func TestFormatResponseFirstDocumentWins(t *testing.T) {
	docs := []SourceDocument{
		{Filename: "first.pdf", RelPath: "u/s/first.pdf"},
		{Filename: "second.pdf", RelPath: "u/s/second.pdf"},
	}

	got := FormatResponse("See (p. 3).", docs)
	if !strings.Contains(got, "first.pdf#page=3") {
		t.Errorf("expected link into first.pdf, got %q", got)
	}
	if strings.Contains(got, "second.pdf") {
		t.Errorf("did not expect second.pdf in %q", got)
	}
}
