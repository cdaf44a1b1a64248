package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// DefaultEndpoint is the ImageKit upload API.
const DefaultEndpoint = "https://upload.imagekit.io/api/v1/files/upload"

// avatarFolder is where room avatars land on the media host.
const avatarFolder = "realtime-chat/avatars"

// Client talks to the avatar upload gateway. It is fail-fast: one attempt, no
// retry; retry policy belongs to the caller's error handling, not here.
type Client struct {
	endpoint   string
	privateKey string
	httpClient *http.Client
}

// NewClient creates an upload gateway client. endpoint may be empty to use
// DefaultEndpoint.
func NewClient(endpoint, privateKey string) *Client {
	if privateKey == "" {
		panic("private key cannot be empty for upload.Client")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		endpoint:   endpoint,
		privateKey: privateKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Upload submits raw image bytes and returns the hosted file's URL.
func (c *Client) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("upload: failed to build multipart body: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("upload: failed to write file part: %w", err)
	}
	if err := writer.WriteField("fileName", fileName); err != nil {
		return "", fmt.Errorf("upload: failed to write fileName field: %w", err)
	}
	if err := writer.WriteField("folder", avatarFolder); err != nil {
		return "", fmt.Errorf("upload: failed to write folder field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("upload: failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("upload: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBasicAuth(c.privateKey, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload: gateway returned status %d: %s", resp.StatusCode, detail)
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("upload: failed to decode gateway response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("upload: gateway response missing url")
	}
	return parsed.URL, nil
}
