package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenRouterComplete(t *testing.T) {
	var got chatRequest
	var headers http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		headers = r.Header.Clone()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"x-ai/grok-4.1-fast","choices":[{"message":{"content":"{\"codigo_escolhido\":\"01\"}"}}],"usage":{"prompt_tokens":12,"completion_tokens":5}}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL+"/", "secret", "http://example.test", "ClassificadorHierarquico")
	defer c.Close()

	out, err := c.Complete(context.Background(), Request{Model: "x-ai/grok-4.1-fast", Prompt: "escolha", JSON: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Text != `{"codigo_escolhido":"01"}` {
		t.Errorf("unexpected text %q", out.Text)
	}
	if out.Usage.InputTokens != 12 || out.Usage.OutputTokens != 5 {
		t.Errorf("unexpected usage %+v", out.Usage)
	}

	if headers.Get("Authorization") != "Bearer secret" {
		t.Errorf("missing bearer token, got %q", headers.Get("Authorization"))
	}
	if headers.Get("HTTP-Referer") != "http://example.test" || headers.Get("X-Title") != "ClassificadorHierarquico" {
		t.Errorf("missing attribution headers: %v", headers)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("expected explicit temperature 0, got %v", got.Temperature)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object response format, got %+v", got.ResponseFormat)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages %+v", got.Messages)
	}
}

func TestOpenRouterImageUsesDataURL(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"choices":[{"message":{"content":"Luva de couro"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "k", "", "")
	_, err := c.Complete(context.Background(), Request{
		Model:  "m",
		Prompt: "descreva",
		Image:  &Image{MIME: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := json.Marshal(raw)
	if !strings.Contains(string(body), "data:image/png;base64,iVBORw==") {
		t.Errorf("expected data url in request, got %s", body)
	}
}

func TestOpenRouterStatusMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"bad request", http.StatusBadRequest, false},
		{"unauthorized", http.StatusUnauthorized, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			}))
			defer srv.Close()

			c := NewOpenRouterClient(srv.URL, "k", "", "")
			_, err := c.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
			if err == nil {
				t.Fatal("expected error")
			}
			if IsRetryable(err) != tc.retryable {
				t.Errorf("IsRetryable(%v) = %v, want %v", err, IsRetryable(err), tc.retryable)
			}
		})
	}
}

func TestOpenRouterEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.URL, "k", "", "")
	if _, err := c.Complete(context.Background(), Request{Model: "m"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
