package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/planr/internal/generation"
)

func TestNewClient_WithAPIKey(t *testing.T) {
	cfg := ClientConfig{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaudeSonnet4_20250514,
	}

	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}

	if client.Tracker() == nil {
		t.Error("Tracker should not be nil")
	}
}

func TestNewClient_WithEnvVar(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	client, err := NewClient(ClientConfig{Model: anthropic.ModelClaudeSonnet4_20250514})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if client == nil {
		t.Fatal("NewClient returned nil")
	}
}

func TestNewClient_NoAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	os.Unsetenv("ANTHROPIC_API_KEY")

	_, err := NewClient(ClientConfig{})
	if err == nil {
		t.Fatal("NewClient should fail without API key")
	}
	if !errors.Is(err, generation.ErrUnavailable) {
		t.Errorf("err = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), "ANTHROPIC_API_KEY environment variable is not set") {
		t.Errorf("Error = %q", err.Error())
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	client, err := NewClient(ClientConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if client.Model() != anthropic.ModelClaudeSonnet4_20250514 {
		t.Errorf("Default model = %q, want %q", client.Model(), anthropic.ModelClaudeSonnet4_20250514)
	}
}

func TestTranslateModelForBedrock(t *testing.T) {
	tests := []struct {
		in   anthropic.Model
		want anthropic.Model
	}{
		{anthropic.ModelClaudeSonnet4_20250514, "us.anthropic.claude-sonnet-4-20250514-v1:0"},
		{anthropic.ModelClaudeHaiku4_5_20251001, "us.anthropic.claude-haiku-4-5-20251001-v1:0"},
		{"us.anthropic.custom-v1:0", "us.anthropic.custom-v1:0"},
	}

	for _, tt := range tests {
		if got := translateModelForBedrock(tt.in); got != tt.want {
			t.Errorf("translateModelForBedrock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// fakeMessagesServer answers /v1/messages with the given status and body and
// records the decoded request.
func fakeMessagesServer(t *testing.T, status int, body string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

const textResponse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-sonnet-4-20250514",
  "content": [{"type": "text", "text": "[{\"id\":\"q1\"}]"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 12, "output_tokens": 5}
}`

func TestClient_Invoke(t *testing.T) {
	var got map[string]any
	srv := fakeMessagesServer(t, http.StatusOK, textResponse, &got)

	client, err := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL, System: "be brief"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	out, err := client.Invoke(context.Background(), generation.Request{
		Prompt:    "Return a JSON array",
		Context:   []generation.Message{{Role: "assistant", Content: "earlier"}},
		MaxTokens: 2000,
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != `[{"id":"q1"}]` {
		t.Errorf("output = %q", out)
	}

	if got["max_tokens"] != float64(2000) {
		t.Errorf("max_tokens = %v, want 2000", got["max_tokens"])
	}
	messages, _ := got["messages"].([]any)
	if len(messages) != 2 {
		t.Errorf("messages = %d, want 2 (context + prompt)", len(messages))
	}
	if got["system"] == nil {
		t.Error("system prompt was not sent")
	}

	in, outTok := client.Tracker().Total()
	if in != 12 || outTok != 5 || client.Tracker().Calls() != 1 {
		t.Errorf("tracker = %d/%d/%d, want 12/5/1", in, outTok, client.Tracker().Calls())
	}
}

func TestClient_Invoke_EmptyResponse(t *testing.T) {
	empty := strings.Replace(textResponse, `[{"type": "text", "text": "[{\"id\":\"q1\"}]"}]`, `[]`, 1)
	srv := fakeMessagesServer(t, http.StatusOK, empty, nil)

	client, _ := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Invoke(context.Background(), generation.Request{Prompt: "p"})
	if !errors.Is(err, generation.ErrFailed) {
		t.Errorf("err = %v, want ErrFailed", err)
	}
}

func TestClient_Invoke_RequestError(t *testing.T) {
	srv := fakeMessagesServer(t, http.StatusInternalServerError,
		`{"type":"error","error":{"type":"api_error","message":"boom"}}`, nil)

	client, _ := NewClient(ClientConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := client.Invoke(context.Background(), generation.Request{Prompt: "p"})
	if !errors.Is(err, generation.ErrFailed) {
		t.Errorf("err = %v, want ErrFailed", err)
	}
	if client.Tracker().Calls() != 0 {
		t.Errorf("failed calls should not be tracked")
	}
}

func TestBuildMessages_SkipsSystemTurns(t *testing.T) {
	msgs := buildMessages(generation.Request{
		Prompt: "final",
		Context: []generation.Message{
			{Role: "system", Content: "rules"},
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello"},
		},
	})
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[1].Role != anthropic.MessageParamRoleAssistant {
		t.Errorf("second message role = %q, want assistant", msgs[1].Role)
	}
}

func TestTokenTracker_Add(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	input, output := tracker.Total()

	if input != 100 {
		t.Errorf("Input tokens = %d, want 100", input)
	}
	if output != 50 {
		t.Errorf("Output tokens = %d, want 50", output)
	}
	if tracker.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", tracker.Calls())
	}
}

func TestTokenTracker_Reset(t *testing.T) {
	tracker := NewTokenTracker()

	tracker.Add(100, 50)
	tracker.Reset()

	input, output := tracker.Total()
	if input != 0 || output != 0 {
		t.Errorf("After reset: input=%d, output=%d; want 0, 0", input, output)
	}
	if tracker.Calls() != 0 {
		t.Errorf("Calls after reset = %d, want 0", tracker.Calls())
	}
}

func TestTokenTracker_Cost(t *testing.T) {
	tracker := NewTokenTracker()

	// $3 input + $15 output
	tracker.Add(1_000_000, 1_000_000)

	if cost := tracker.Cost(); cost != 18.0 {
		t.Errorf("Cost = %f, want 18", cost)
	}
}

func TestNewClient_Bedrock(t *testing.T) {
	if os.Getenv("AWS_REGION") == "" && os.Getenv("AWS_DEFAULT_REGION") == "" {
		t.Skip("AWS_REGION not set, skipping Bedrock test")
	}

	client, err := NewClient(ClientConfig{
		UseAWSBedrock: true,
		AWSRegion:     "us-west-2",
		Model:         anthropic.ModelClaudeSonnet4_20250514,
	})
	if err != nil {
		t.Fatalf("NewClient with Bedrock failed: %v", err)
	}

	if client.Model() != "us.anthropic.claude-sonnet-4-20250514-v1:0" {
		t.Errorf("Model = %q, want Bedrock inference profile", client.Model())
	}
}
