package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"autocommit/cli/internal/logging"
	"autocommit/cli/internal/provider"
)

func TestNewClient_normalizesBaseURL(t *testing.T) {
	t.Parallel()
	c := NewClient("http://localhost:11434/", nil)
	if c.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want no trailing slash", c.baseURL)
	}
}

func TestClient_Check(t *testing.T) {
	t.Parallel()

	validWithModel := `{"models":[{"name":"qwen2.5-coder:7b","modified_at":"2024-01-01T00:00:00Z","size":0,"digest":"","details":{}}]}`
	validWithoutModel := `{"models":[{"name":"other:7b","modified_at":"2024-01-01T00:00:00Z","size":0,"digest":"","details":{}}]}`

	tests := []struct {
		name            string
		status          int
		body            string
		model           string
		wantPresent     bool
		wantErr         bool
		wantUnreachable bool
	}{
		{name: "200_with_model", status: http.StatusOK, body: validWithModel, model: "qwen2.5-coder:7b", wantPresent: true},
		{name: "200_without_model", status: http.StatusOK, body: validWithoutModel, model: "qwen2.5-coder:7b"},
		{name: "200_empty_models", status: http.StatusOK, body: `{"models":[]}`, model: "any"},
		{name: "200_invalid_json", status: http.StatusOK, body: `{`, model: "any", wantErr: true},
		{name: "404", status: http.StatusNotFound, model: "any", wantErr: true, wantUnreachable: true},
		{name: "500", status: http.StatusInternalServerError, model: "any", wantErr: true, wantUnreachable: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/tags" {
					t.Errorf("path = %q, want /api/tags", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, srv.Client()).Check(context.Background(), tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Check: want error, got nil")
				}
				if tt.wantUnreachable && !errors.Is(err, ErrUnreachable) {
					t.Errorf("error should wrap ErrUnreachable: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if !got.Reachable {
				t.Error("Reachable = false")
			}
			if got.ModelPresent != tt.wantPresent {
				t.Errorf("ModelPresent = %v, want %v", got.ModelPresent, tt.wantPresent)
			}
		})
	}
}

func TestClient_Check_connectionRefused(t *testing.T) {
	t.Parallel()
	// Bind and release a port so nothing is listening.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := listener.Addr().String()
	if err := listener.Close(); err != nil {
		t.Fatalf("close listener: %v", err)
	}
	_, err = NewClient("http://"+addr, nil).Check(context.Background(), "any")
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("error should wrap ErrUnreachable: %v", err)
	}
}

func TestClient_Generate(t *testing.T) {
	t.Parallel()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"response":"feat: add x","done":true,"prompt_eval_count":12,"eval_count":5,"eval_duration":1000}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, srv.Client()).Generate(context.Background(), "m", "sys", "user", &GenerateOptions{Temperature: 0.2, NumCtx: 4096})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Response != "feat: add x" || res.PromptEvalCount != 12 || res.EvalCount != 5 {
		t.Errorf("result = %+v", res)
	}
	want := map[string]any{
		"model":   "m",
		"system":  "sys",
		"prompt":  "user",
		"stream":  false,
		"options": map[string]any{"temperature": 0.2, "num_ctx": float64(4096)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_Generate_failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind provider.Kind
	}{
		{"429", http.StatusTooManyRequests, ``, provider.KindRateLimited},
		{"500", http.StatusInternalServerError, ``, provider.KindTransport},
		{"missing_response", http.StatusOK, `{"done":true}`, provider.KindMalformedResponse},
		{"invalid_json", http.StatusOK, `not json`, provider.KindMalformedResponse},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			_, err := NewClient(srv.URL, srv.Client()).Generate(context.Background(), "m", "", "p", nil)
			if got := provider.KindOf(err); got != tt.wantKind {
				t.Errorf("kind = %v, want %v (err %v)", got, tt.wantKind, err)
			}
		})
	}
}

func TestSynthesizer_Send(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"feat: local"}`))
	}))
	defer srv.Close()
	s := &Synthesizer{Client: NewClient(srv.URL, srv.Client()), Model: "m"}
	if s.NeedsAPIKey() {
		t.Error("NeedsAPIKey() = true")
	}
	got, err := s.Send(context.Background(), provider.Request{Prompt: "p"})
	if err != nil || got != "feat: local" {
		t.Errorf("Send = %q, %v", got, err)
	}
}

func TestSynthesizer_Send_logsEvalCounters(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"feat: x","prompt_eval_count":42,"eval_count":7,"eval_duration":1500000}`))
	}))
	defer srv.Close()
	var buf bytes.Buffer
	log, err := logging.New(&buf, "debug")
	if err != nil {
		t.Fatal(err)
	}
	client := NewClient(srv.URL, srv.Client())
	client.Log = log
	s := &Synthesizer{Client: client, Model: "m"}
	if _, err := s.Send(context.Background(), provider.Request{Prompt: "p"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	log.Sync()
	out := buf.String()
	for _, want := range []string{"ollama generate response", `"status": 200`, "latency", `"prompt_eval_count": 42`, `"eval_count": 7`, "eval_duration"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
}
