package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// OpenAI transcribes audio through the Whisper API.
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAI creates the remote API backend. The baseURL can be overridden
// for testing; if empty the public endpoint is used.
func NewOpenAI(client *http.Client, baseURL, apiKey, model string) *OpenAI {
	if client == nil {
		client = http.DefaultClient
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.openai.com"
	}
	if strings.TrimSpace(model) == "" {
		model = "whisper-1"
	}
	return &OpenAI{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (b *OpenAI) Name() string { return "openai" }

func (b *OpenAI) Available() bool { return strings.TrimSpace(b.apiKey) != "" }

func (b *OpenAI) Transcribe(ctx context.Context, path, language string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := form.WriteField("model", b.model); err != nil {
		return "", err
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return "", err
		}
	}
	if err := form.WriteField("response_format", "text"); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper api: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read whisper api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper api failed: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	return strings.TrimSpace(string(data)), nil
}
