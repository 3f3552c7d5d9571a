package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

func TestHistory(t *testing.T) {
	got := History([]llm.Message{
		{Kind: llm.KindHuman, Content: "What is relativity?"},
		{Kind: llm.KindAI, Content: "Ah, my theory!"},
	})
	require.Len(t, got, 2)
	require.Equal(t, "user", got[0].Role)
	require.Equal(t, []genai.Part{genai.Text("What is relativity?")}, got[0].Parts)
	require.Equal(t, "model", got[1].Role)
	require.Equal(t, []genai.Part{genai.Text("Ah, my theory!")}, got[1].Parts)
}

func TestHistory_Empty(t *testing.T) {
	got := History(nil)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestSystemInstruction(t *testing.T) {
	require.Nil(t, SystemInstruction(""))
	si := SystemInstruction("You are Einstein.")
	require.Equal(t, []genai.Part{genai.Text("You are Einstein.")}, si.Parts)
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role:  "model",
				Parts: []genai.Part{genai.Text("E=mc² "), genai.Text("🚀")},
			},
		}},
	}
	text, err := ResponseText(resp)
	require.NoError(t, err)
	require.Equal(t, "E=mc² 🚀", text)
}

func TestResponseText_Empty(t *testing.T) {
	_, err := ResponseText(nil)
	require.Error(t, err)

	_, err = ResponseText(&genai.GenerateContentResponse{})
	require.Error(t, err)

	_, err = ResponseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	})
	require.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Settings{Model: "gemini-2.5-flash"})
	require.Error(t, err)

	_, err = New(context.Background(), Settings{APIKey: "k"})
	require.Error(t, err)
}

type wireContent struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

type wireRequest struct {
	Contents          []wireContent `json:"contents"`
	SystemInstruction *wireContent  `json:"systemInstruction"`
	GenerationConfig  struct {
		Temperature *float64 `json:"temperature"`
	} `json:"generationConfig"`
}

// redirectTransport sends every REST call of the genai client to a local test server.
type redirectTransport struct {
	target *url.URL
	base   http.RoundTripper
}

func (rt redirectTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.URL.Scheme = rt.target.Scheme
	r.URL.Host = rt.target.Host
	r.Host = ""
	return rt.base.RoundTrip(r)
}

func newFakeInvoker(t *testing.T, s Settings, handler http.HandlerFunc) *Invoker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	client := &http.Client{Transport: redirectTransport{target: target, base: srv.Client().Transport}}

	inv, err := New(context.Background(), s, option.WithHTTPClient(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = inv.Close() })
	return inv
}

func sampleRequest() llm.Request {
	return llm.Request{
		PersonaInstruction: "You are Einstein.",
		History: []llm.Message{
			{Kind: llm.KindHuman, Content: "What is relativity?"},
			{Kind: llm.KindAI, Content: "Ah, my theory!"},
		},
		NewInput: "Tell me more",
	}
}

func TestInvoke(t *testing.T) {
	var got wireRequest
	inv := newFakeInvoker(t, Settings{APIKey: "k", Model: "gemini-2.5-flash", Temperature: 0},
		func(w http.ResponseWriter, r *http.Request) {
			// chat sessions use the streaming endpoint, answered as a JSON array of chunks
			assert.Equal(t, "/v1beta/models/gemini-2.5-flash:streamGenerateContent", r.URL.Path)
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"candidates": [{"content": {"role": "model", "parts": [{"text": "Fine, "}]}}]},
				{"candidates": [{"content": {"role": "model", "parts": [{"text": "listen."}]}, "finishReason": 1}],
				 "usageMetadata": {"promptTokenCount": 12, "candidatesTokenCount": 3}}
			]`))
		})

	out, err := inv.Invoke(context.Background(), sampleRequest())
	require.NoError(t, err)
	require.Equal(t, "Fine, listen.", out)

	require.NotNil(t, got.SystemInstruction)
	require.Equal(t, "You are Einstein.", got.SystemInstruction.Parts[0].Text)
	require.Len(t, got.Contents, 3)
	require.Equal(t, "user", got.Contents[0].Role)
	require.Equal(t, "model", got.Contents[1].Role)
	require.Equal(t, "user", got.Contents[2].Role)
	require.Equal(t, "Tell me more", got.Contents[2].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig.Temperature)
	require.InDelta(t, 0, *got.GenerationConfig.Temperature, 1e-9)
}

func TestInvoke_HTTPErrorIsUpstream(t *testing.T) {
	var calls atomic.Int32
	inv := newFakeInvoker(t, Settings{APIKey: "k", Model: "gemini-2.5-flash"},
		func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
		})

	_, err := inv.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)

	var ue *llm.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, Provider, ue.Provider)
	require.Equal(t, "gemini-2.5-flash", ue.Model)
	require.EqualValues(t, 1, calls.Load())
}

func TestInvoke_NoCandidatesIsUpstream(t *testing.T) {
	inv := newFakeInvoker(t, Settings{APIKey: "k", Model: "gemini-2.5-flash"},
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"candidates": []}]`))
		})

	_, err := inv.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)
	require.True(t, llm.IsUpstream(err))
}

func TestInvoke_Timeout(t *testing.T) {
	release := make(chan struct{})
	inv := newFakeInvoker(t, Settings{APIKey: "k", Model: "gemini-2.5-flash", Timeout: 50 * time.Millisecond},
		func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		})
	defer close(release)

	start := time.Now()
	_, err := inv.Invoke(context.Background(), sampleRequest())
	require.Error(t, err)
	require.True(t, llm.IsUpstream(err))
	require.Less(t, time.Since(start), 5*time.Second)
}
