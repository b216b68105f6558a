package gemini

import "context"

// Turn is one prior exchange replayed into a new chat context.
type Turn struct {
	Role string // RoleUser or RoleModel
	Text string
}

// ChatSession is a stateful chat context. The backend itself is stateless;
// the accumulated contents slice is the context, resent on every call. A
// ChatSession belongs to a single connection task and is not safe for
// concurrent use.
type ChatSession struct {
	client   *Client
	contents []*Content
}

// CreateChat builds a chat context from stored history and processed file
// references. Files are injected as the first user content so the model can
// ground answers in them, mirroring how the context is built on upload.
func (c *Client) CreateChat(history []Turn, files []*File) *ChatSession {
	contents := make([]*Content, 0, len(history)+1)

	fileParts := make([]*Part, 0, len(files))
	for _, f := range files {
		if f == nil || f.URI == "" || f.MimeType == "" {
			continue
		}
		fileParts = append(fileParts, &Part{
			FileData: &FileData{MimeType: f.MimeType, FileURI: f.URI},
		})
	}
	if len(fileParts) > 0 {
		contents = append(contents, &Content{Role: RoleUser, Parts: fileParts})
	}

	for _, turn := range history {
		contents = append(contents, &Content{
			Role:  turn.Role,
			Parts: []*Part{{Text: turn.Text}},
		})
	}

	return &ChatSession{client: c, contents: contents}
}

// SendMessage appends the user text, asks the model, records the reply in
// the context, and returns the reply text. On error the context is left
// unchanged so a failed call can simply be retried.
func (s *ChatSession) SendMessage(ctx context.Context, text string) (string, error) {
	attempt := append(s.contents, &Content{
		Role:  RoleUser,
		Parts: []*Part{{Text: text}},
	})

	reply, err := s.client.generateContent(ctx, attempt)
	if err != nil {
		return "", err
	}

	s.contents = append(attempt, &Content{
		Role:  RoleModel,
		Parts: []*Part{{Text: reply}},
	})
	return reply, nil
}
