package gen

import "time"

// Turn is one role-tagged entry of prior conversation passed to ChatReply.
type Turn struct {
	Role string // "user" or "model"
	Text string
}

// InlineImage is an optional attachment for a chat turn.
type InlineImage struct {
	MIMEType   string
	Base64Data string
}

// ClientConfig holds configuration for the Gemini client.
type ClientConfig struct {
	APIKey         string
	BaseURL        string
	ChatModel      string
	ImageModel     string
	EmbeddingModel string
	Timeout        time.Duration
}

// DefaultClientConfig returns the production defaults.
func DefaultClientConfig(apiKey string) ClientConfig {
	return ClientConfig{
		APIKey:         apiKey,
		BaseURL:        "https://generativelanguage.googleapis.com/v1beta",
		ChatModel:      "gemini-2.5-flash",
		ImageModel:     "imagen-4.0-generate-001",
		EmbeddingModel: "gemini-embedding-001",
		Timeout:        2 * time.Minute,
	}
}

// geminiRequest is the generateContent request body.
type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// geminiContent is a role-tagged list of parts.
type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiPart is either text or inline binary data.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"topP,omitempty"`
}

// geminiResponse is the generateContent response body.
type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *geminiError      `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// imagenRequest is the :predict request body for image synthesis.
type imagenRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount    int    `json:"sampleCount"`
	AspectRatio    string `json:"aspectRatio"`
	OutputMIMEType string `json:"outputMimeType,omitempty"`
}

// imagenResponse is the :predict response body.
type imagenResponse struct {
	Predictions []imagenPrediction `json:"predictions"`
	Error       *geminiError       `json:"error,omitempty"`
}

type imagenPrediction struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MIMEType           string `json:"mimeType"`
}
