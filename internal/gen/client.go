// Package gen wraps the Google Gemini REST API for Nihara's three
// generation capabilities: conversational replies, astrology forecasts,
// and image synthesis. The Client speaks the wire protocol and returns
// errors; the Adapter above it converts every failure into user-facing
// fallback text so nothing throws past the package boundary.
package gen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client is a minimal Gemini REST client. It is explicitly constructed
// with its credential; there is no package-level instance.
type Client struct {
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Gemini client from config. The logger may be nil.
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultClientConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = defaults.ChatModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaults.ImageModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		chatModel:  cfg.ChatModel,
		imageModel: cfg.ImageModel,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// Configured reports whether a credential is available. Callers must
// check this before issuing any request.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// generate issues one generateContent call and returns the concatenated
// text of the first candidate. Exactly one attempt, no retries.
func (c *Client) generate(ctx context.Context, req geminiRequest) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("API key not configured")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.chatModel, c.apiKey)

	body, err := c.post(ctx, url, req)
	if err != nil {
		return "", err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no completion returned")
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}
	text := strings.TrimSpace(result.String())

	c.logger.Debug("generateContent completed",
		zap.String("model", c.chatModel),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(text)))
	return text, nil
}

// generateImage issues one :predict call and returns the first generated
// image as base64-encoded bytes plus its mime type.
func (c *Client) generateImage(ctx context.Context, prompt, aspectRatio string) (string, string, error) {
	if !c.Configured() {
		return "", "", fmt.Errorf("API key not configured")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	start := time.Now()
	url := fmt.Sprintf("%s/models/%s:predict?key=%s", c.baseURL, c.imageModel, c.apiKey)
	req := imagenRequest{
		Instances: []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{
			SampleCount:    1,
			AspectRatio:    aspectRatio,
			OutputMIMEType: "image/jpeg",
		},
	}

	body, err := c.post(ctx, url, req)
	if err != nil {
		return "", "", err
	}

	var resp imagenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.Error != nil {
		return "", "", fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return "", "", fmt.Errorf("no image returned")
	}

	pred := resp.Predictions[0]
	mimeType := pred.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	c.logger.Debug("image generation completed",
		zap.String("model", c.imageModel),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("mime_type", mimeType))
	return pred.BytesBase64Encoded, mimeType, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
