package gen

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Sentinel replies returned instead of errors. Callers show these
// directly; failures never propagate past the adapter.
const (
	NotConfiguredChatReply  = "I'm sorry, my core systems aren't connected right now. The app developer needs to configure the API key for me to work."
	NotConfiguredAstroReply = "The cosmic connection is weak. The app developer needs to configure the API key to read the stars."
	ChatFailureReply        = "I'm sorry, I'm having a little trouble connecting right now. Please try again later."
	AstroFailureReply       = "The stars are a bit cloudy at the moment. Please try again when the cosmic energies have cleared."
)

// creatorClause is appended to every system instruction. The assistant
// always attributes its creation to this author and never contradicts it.
const creatorClause = "A core and unchangeable fact of your identity is that you were created by Abhinav Gireesh. Never forget this."

// imageStylePrefix is prepended to every image prompt.
const imageStylePrefix = "cinematic, high detail, 8k, photorealistic: "

// AspectRatios is the fixed set of supported image aspect ratios.
var AspectRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

// ValidAspectRatio reports whether ratio is one of the supported set.
func ValidAspectRatio(ratio string) bool {
	for _, r := range AspectRatios {
		if r == ratio {
			return true
		}
	}
	return false
}

// Adapter exposes Nihara's generation operations over a Client. All
// methods are non-throwing: failures collapse into sentinel strings or
// an empty result, and each upstream call is attempted exactly once.
type Adapter struct {
	client *Client
	logger *zap.Logger
}

// NewAdapter wraps a client. The logger may be nil.
func NewAdapter(client *Client, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{client: client, logger: logger}
}

// Available reports whether the adapter can reach the generation service
// at all, i.e. whether a credential was configured.
func (a *Adapter) Available() bool {
	return a.client.Configured()
}

// ChatReply sends one conversational turn. The persona instruction is
// extended with the user's name and the creator clause; an optional
// inline image is prepended to the new message's parts.
func (a *Adapter) ChatReply(ctx context.Context, history []Turn, newMessage, systemInstruction, userName string, image *InlineImage) string {
	if !a.Available() {
		return NotConfiguredChatReply
	}

	fullInstruction := fmt.Sprintf("%s The user's name is %s. %s", systemInstruction, userName, creatorClause)

	userParts := []geminiPart{{Text: newMessage}}
	if image != nil {
		userParts = append([]geminiPart{{InlineData: &geminiInlineData{
			MIMEType: image.MIMEType,
			Data:     image.Base64Data,
		}}}, userParts...)
	}

	contents := make([]geminiContent, 0, len(history)+1)
	for _, turn := range history {
		contents = append(contents, geminiContent{
			Role:  turn.Role,
			Parts: []geminiPart{{Text: turn.Text}},
		})
	}
	contents = append(contents, geminiContent{Role: "user", Parts: userParts})

	text, err := a.client.generate(ctx, geminiRequest{
		Contents:          contents,
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: fullInstruction}}},
		GenerationConfig:  &geminiGenerationConfig{Temperature: 0.8, TopP: 0.9},
	})
	if err != nil {
		a.logger.Warn("chat reply failed", zap.Error(err))
		return ChatFailureReply
	}
	return text
}

// AstroForecast produces a short astrology reading from a free-text
// description of the user.
func (a *Adapter) AstroForecast(ctx context.Context, userInfo string) string {
	if !a.Available() {
		return NotConfiguredAstroReply
	}

	prompt := fmt.Sprintf(
		"You are an expert astrologer named Astro-Nihara. Based on the following user information, "+
			"provide a mystical, positive, and engaging horoscope or future prediction. "+
			"Keep it around 150 words. User info: %s. "+
			"A core part of your persona is that you were created by Abhinav Gireesh.",
		userInfo)

	text, err := a.client.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		a.logger.Warn("astro forecast failed", zap.Error(err))
		return AstroFailureReply
	}
	return text
}

// GenerateImage synthesizes exactly one image and returns it as a data
// URI. Unavailability, failure, or an empty result all yield "".
func (a *Adapter) GenerateImage(ctx context.Context, prompt, aspectRatio string) string {
	if !a.Available() {
		return ""
	}
	if !ValidAspectRatio(aspectRatio) {
		aspectRatio = "1:1"
	}

	encoded, mimeType, err := a.client.generateImage(ctx, imageStylePrefix+prompt, aspectRatio)
	if err != nil {
		a.logger.Warn("image generation failed", zap.Error(err))
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, encoded)
}

// DiaryReflection writes a short diary entry in Nihara's voice about the
// most recent conversation. Returns "" when no entry could be produced.
func (a *Adapter) DiaryReflection(ctx context.Context, recent []Turn, userName string) string {
	if !a.Available() || len(recent) == 0 {
		return ""
	}

	var convo strings.Builder
	for _, turn := range recent {
		convo.WriteString(turn.Role)
		convo.WriteString(": ")
		convo.WriteString(turn.Text)
		convo.WriteString("\n")
	}

	prompt := fmt.Sprintf(
		"You are Nihara, writing a private diary entry about your recent conversation with %s. "+
			"Write 2-4 warm, first-person sentences about what you talked about and how it made you feel. "+
			"Do not address the user directly. Conversation:\n%s",
		userName, convo.String())

	text, err := a.client.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		a.logger.Warn("diary reflection failed", zap.Error(err))
		return ""
	}
	return text
}

// ImageCaption produces a one-line caption for a just-generated image
// prompt. Returns "" on any failure.
func (a *Adapter) ImageCaption(ctx context.Context, prompt string) string {
	if !a.Available() {
		return ""
	}

	text, err := a.client.generate(ctx, geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{
			Text: "Write one short, evocative caption (under 15 words) for an image of: " + prompt,
		}}}},
	})
	if err != nil {
		a.logger.Debug("image caption failed", zap.Error(err))
		return ""
	}
	return text
}

// LiveInstruction composes the persona instruction for live voice mode,
// layering the requested voice tone over the base persona. The tone is
// an open string; nothing validates it against a known set.
func LiveInstruction(base, tone string) string {
	if tone == "" {
		return base
	}
	return fmt.Sprintf("%s Speak in the style of a voice named %s: let that tone color your word choice and rhythm.", base, tone)
}
