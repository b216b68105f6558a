package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const baseURL = "https://generativelanguage.googleapis.com"

// SystemInstruction guides the assistant for every chat context. Page
// citations in the (p. X) format are what the citation formatter resolves.
const SystemInstruction = `You are a helpful assistant. You have access to the provided files.
Answer questions based on the information in these files.
When citing sources, use the format (p. X) for page references, where X is the page number.
Format your responses in a clear, readable style that works well with markdown rendering.`

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	ResponseMime    string  `json:"responseMimeType"`
}

type Client struct {
	apiKey     string
	model      string
	genConfig  GenerationConfig
	httpClient *http.Client
}

func NewClient(apiKey, model string, genConfig GenerationConfig) *Client {
	if genConfig.ResponseMime == "" {
		genConfig.ResponseMime = "text/plain"
	}
	return &Client{
		apiKey:    apiKey,
		model:     model,
		genConfig: genConfig,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Wire types for generateContent.

type Part struct {
	Text     string    `json:"text,omitempty"`
	FileData *FileData `json:"file_data,omitempty"`
}

type FileData struct {
	MimeType string `json:"mime_type"`
	FileURI  string `json:"file_uri"`
}

type Content struct {
	Parts []*Part `json:"parts"`
	Role  string  `json:"role"`
}

type generateRequest struct {
	SystemInstruction *Content         `json:"system_instruction,omitempty"`
	Contents          []*Content       `json:"contents"`
	GenerationConfig  GenerationConfig `json:"generationConfig"`
}

type candidate struct {
	Content *Content `json:"content"`
}

type generateResponse struct {
	Candidates []*candidate `json:"candidates"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

func (c *Client) generateContent(ctx context.Context, contents []*Content) (string, error) {
	payload := generateRequest{
		SystemInstruction: &Content{
			Parts: []*Part{{Text: SystemInstruction}},
		},
		Contents:         contents,
		GenerationConfig: c.genConfig,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var genRes generateResponse
	if err := json.Unmarshal(resBody, &genRes); err != nil {
		return "", err
	}

	if len(genRes.Candidates) == 0 || genRes.Candidates[0].Content == nil || len(genRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return genRes.Candidates[0].Content.Parts[0].Text, nil
}
