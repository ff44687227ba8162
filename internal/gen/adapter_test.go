package gen

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubServer records every request and replies with a canned handler.
type stubServer struct {
	*httptest.Server
	hits   atomic.Int64
	bodies chan []byte
}

func newStubServer(t *testing.T, handler http.HandlerFunc) *stubServer {
	t.Helper()
	s := &stubServer{bodies: make(chan []byte, 16)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		s.bodies <- body
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func chatOK(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := geminiResponse{Candidates: []geminiCandidate{{
			Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}},
		}}}
		json.NewEncoder(w).Encode(resp)
	}
}

func imageOK(encoded string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := imagenResponse{Predictions: []imagenPrediction{{
			BytesBase64Encoded: encoded,
			MIMEType:           "image/jpeg",
		}}}
		json.NewEncoder(w).Encode(resp)
	}
}

func serverError(w http.ResponseWriter, r *http.Request) {
	http.Error(w, `{"error":{"code":500,"message":"boom"}}`, http.StatusInternalServerError)
}

func newTestAdapter(apiKey, baseURL string) *Adapter {
	client := NewClient(ClientConfig{APIKey: apiKey, BaseURL: baseURL}, nil)
	return NewAdapter(client, nil)
}

func TestChatReplyNotConfigured(t *testing.T) {
	srv := newStubServer(t, chatOK("should never be called"))
	adapter := newTestAdapter("", srv.URL)

	reply := adapter.ChatReply(context.Background(), nil, "hello", "instruction", "Maya", nil)
	assert.Equal(t, NotConfiguredChatReply, reply)
	assert.EqualValues(t, 0, srv.hits.Load(), "unconfigured adapter must not perform network I/O")
	assert.False(t, adapter.Available())
}

func TestGenerateImageNotConfigured(t *testing.T) {
	srv := newStubServer(t, imageOK("aGVsbG8="))
	adapter := newTestAdapter("", srv.URL)

	uri := adapter.GenerateImage(context.Background(), "a sunset", "1:1")
	assert.Equal(t, "", uri)
	assert.EqualValues(t, 0, srv.hits.Load())
}

func TestAstroForecastNotConfigured(t *testing.T) {
	srv := newStubServer(t, chatOK("unused"))
	adapter := newTestAdapter("", srv.URL)

	assert.Equal(t, NotConfiguredAstroReply, adapter.AstroForecast(context.Background(), "a libra"))
	assert.EqualValues(t, 0, srv.hits.Load())
}

func TestChatReplyUpstreamFailure(t *testing.T) {
	srv := newStubServer(t, serverError)
	adapter := newTestAdapter("key", srv.URL)

	reply := adapter.ChatReply(context.Background(), nil, "hello", "instruction", "Maya", nil)
	assert.Equal(t, ChatFailureReply, reply)
	assert.EqualValues(t, 1, srv.hits.Load(), "failed calls are attempted exactly once")
}

func TestAstroForecastUpstreamFailure(t *testing.T) {
	srv := newStubServer(t, serverError)
	adapter := newTestAdapter("key", srv.URL)

	assert.Equal(t, AstroFailureReply, adapter.AstroForecast(context.Background(), "a libra"))
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestGenerateImageUpstreamFailure(t *testing.T) {
	srv := newStubServer(t, serverError)
	adapter := newTestAdapter("key", srv.URL)

	assert.Equal(t, "", adapter.GenerateImage(context.Background(), "a sunset", "16:9"))
	assert.EqualValues(t, 1, srv.hits.Load())
}

func TestGenerateImageEmptyResult(t *testing.T) {
	srv := newStubServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(imagenResponse{})
	})
	adapter := newTestAdapter("key", srv.URL)

	assert.Equal(t, "", adapter.GenerateImage(context.Background(), "a sunset", "1:1"))
}

func TestChatReplyComposesRequest(t *testing.T) {
	srv := newStubServer(t, chatOK("Hey Maya!"))
	adapter := newTestAdapter("key", srv.URL)

	history := []Turn{
		{Role: "user", Text: "hi"},
		{Role: "model", Text: "hello!"},
	}
	image := &InlineImage{MIMEType: "image/png", Base64Data: "cGl4ZWxz"}
	reply := adapter.ChatReply(context.Background(), history, "look at this", "Be warm.", "Maya", image)
	require.Equal(t, "Hey Maya!", reply)

	var req geminiRequest
	require.NoError(t, json.Unmarshal(<-srv.bodies, &req))

	require.NotNil(t, req.SystemInstruction)
	instruction := req.SystemInstruction.Parts[0].Text
	assert.Contains(t, instruction, "Be warm.")
	assert.Contains(t, instruction, "The user's name is Maya.")
	assert.Contains(t, instruction, "created by Abhinav Gireesh")

	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, 0.8, req.GenerationConfig.Temperature)
	assert.Equal(t, 0.9, req.GenerationConfig.TopP)

	// History order preserved, new message last with the image part first.
	require.Len(t, req.Contents, 3)
	assert.Equal(t, "hi", req.Contents[0].Parts[0].Text)
	assert.Equal(t, "hello!", req.Contents[1].Parts[0].Text)
	last := req.Contents[2]
	assert.Equal(t, "user", last.Role)
	require.Len(t, last.Parts, 2)
	require.NotNil(t, last.Parts[0].InlineData)
	assert.Equal(t, "image/png", last.Parts[0].InlineData.MIMEType)
	assert.Equal(t, "look at this", last.Parts[1].Text)
}

func TestAstroForecastPrompt(t *testing.T) {
	srv := newStubServer(t, chatOK("A bright month ahead."))
	adapter := newTestAdapter("key", srv.URL)

	reply := adapter.AstroForecast(context.Background(), "libra, loves rain")
	require.Equal(t, "A bright month ahead.", reply)

	var req geminiRequest
	require.NoError(t, json.Unmarshal(<-srv.bodies, &req))
	prompt := req.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, "Astro-Nihara")
	assert.Contains(t, prompt, "libra, loves rain")
	assert.Contains(t, prompt, "created by Abhinav Gireesh")
	assert.Nil(t, req.GenerationConfig)
}

func TestGenerateImageSuccess(t *testing.T) {
	srv := newStubServer(t, imageOK("aW1hZ2VieXRlcw=="))
	adapter := newTestAdapter("key", srv.URL)

	uri := adapter.GenerateImage(context.Background(), "a red fox in snow", "9:16")
	assert.Equal(t, "data:image/jpeg;base64,aW1hZ2VieXRlcw==", uri)

	var req imagenRequest
	require.NoError(t, json.Unmarshal(<-srv.bodies, &req))
	require.Len(t, req.Instances, 1)
	assert.True(t, strings.HasPrefix(req.Instances[0].Prompt, imageStylePrefix))
	assert.Contains(t, req.Instances[0].Prompt, "a red fox in snow")
	assert.Equal(t, 1, req.Parameters.SampleCount)
	assert.Equal(t, "9:16", req.Parameters.AspectRatio)
}

func TestGenerateImageNormalizesUnknownRatio(t *testing.T) {
	srv := newStubServer(t, imageOK("eA=="))
	adapter := newTestAdapter("key", srv.URL)

	_ = adapter.GenerateImage(context.Background(), "anything", "2:3")

	var req imagenRequest
	require.NoError(t, json.Unmarshal(<-srv.bodies, &req))
	assert.Equal(t, "1:1", req.Parameters.AspectRatio)
}

func TestValidAspectRatio(t *testing.T) {
	for _, r := range AspectRatios {
		assert.True(t, ValidAspectRatio(r), r)
	}
	assert.False(t, ValidAspectRatio("2:3"))
	assert.False(t, ValidAspectRatio(""))
}

func TestDiaryReflection(t *testing.T) {
	srv := newStubServer(t, chatOK("We talked about the rain today."))
	adapter := newTestAdapter("key", srv.URL)

	entry := adapter.DiaryReflection(context.Background(), []Turn{
		{Role: "user", Text: "I love rainy days"},
		{Role: "model", Text: "Me too."},
	}, "Maya")
	assert.Equal(t, "We talked about the rain today.", entry)

	// No conversation, nothing to reflect on.
	assert.Equal(t, "", adapter.DiaryReflection(context.Background(), nil, "Maya"))
}

func TestImageCaptionFailureIsEmpty(t *testing.T) {
	srv := newStubServer(t, serverError)
	adapter := newTestAdapter("key", srv.URL)

	assert.Equal(t, "", adapter.ImageCaption(context.Background(), "a sunset"))
}

func TestLiveInstruction(t *testing.T) {
	assert.Equal(t, "base", LiveInstruction("base", ""))
	withTone := LiveInstruction("base", "Zephyr")
	assert.Contains(t, withTone, "base")
	assert.Contains(t, withTone, "Zephyr")
}
