package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// File processing states reported by the Files API.
const (
	FileStateProcessing = "PROCESSING"
	FileStateActive     = "ACTIVE"
	FileStateFailed     = "FAILED"
)

var (
	// ErrProcessingTimeout means the file never left PROCESSING before the
	// wait deadline. The caller decides how to surface it.
	ErrProcessingTimeout = errors.New("file processing timed out")

	// ErrFileFailed means the backend reported a terminal failure state.
	ErrFileFailed = errors.New("file failed to process")
)

// File is a reference to a file held by the backend. URI is only usable as
// chat context once State is ACTIVE.
type File struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

type uploadResponse struct {
	File *File `json:"file"`
}

// UploadFile pushes raw bytes to the Files API. The returned reference is
// usually still PROCESSING; use WaitForFileActive before attaching it to a
// chat context.
func (c *Client) UploadFile(ctx context.Context, displayName, mimeType string, data []byte) (*File, error) {
	url := fmt.Sprintf("%s/upload/v1beta/files?uploadType=media", baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("X-Goog-Upload-Protocol", "raw")
	req.Header.Set("X-Goog-File-Name", displayName)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var uploadRes uploadResponse
	if err := json.Unmarshal(resBody, &uploadRes); err != nil {
		return nil, err
	}
	if uploadRes.File == nil {
		return nil, fmt.Errorf("upload response missing file reference")
	}
	if uploadRes.File.MimeType == "" {
		uploadRes.File.MimeType = mimeType
	}

	return uploadRes.File, nil
}

// GetFile fetches the current processing state of an uploaded file.
func (c *Client) GetFile(ctx context.Context, name string) (*File, error) {
	url := fmt.Sprintf("%s/v1beta/%s", baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var file File
	if err := json.Unmarshal(resBody, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// WaitForFileActive polls until the file reaches ACTIVE, a terminal failure
// state, or the context deadline. Poll interval starts at baseBackoff and
// doubles up to 8x, so a slow backend is not hammered. Cancelling the
// context (connection gone, deadline hit) stops the loop immediately.
func (c *Client) WaitForFileActive(ctx context.Context, file *File, baseBackoff time.Duration) (*File, error) {
	if file.State == FileStateActive {
		return file, nil
	}
	if baseBackoff <= 0 {
		baseBackoff = 2 * time.Second
	}

	backoff := baseBackoff
	maxBackoff := 8 * baseBackoff

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrProcessingTimeout
			}
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		current, err := c.GetFile(ctx, file.Name)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrProcessingTimeout
			}
			return nil, err
		}

		switch current.State {
		case FileStateActive:
			return current, nil
		case FileStateProcessing:
			if backoff < maxBackoff {
				backoff *= 2
			}
		default:
			return nil, fmt.Errorf("%w: %s reported state %s", ErrFileFailed, current.Name, current.State)
		}
	}
}
