package tts

import (
	"StoryLift-api/internal/config"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testConfig(baseURL string) config.TTSClientConfig {
	return config.TTSClientConfig{
		BaseURL:        baseURL,
		APIKey:         "test-key",
		VoiceID:        "voice-1",
		ModelID:        "model-1",
		TimeoutSeconds: 5,
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return client, server
}

func TestSynthesizeSuccess(t *testing.T) {
	audio := []byte("fake-mp3-bytes")
	var gotPath, gotAPIKey string
	var gotBody synthesisRequest

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAPIKey = r.Header.Get("xi-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write(audio)
	})

	result, err := client.Synthesize(context.Background(), "hello world this is a longer sentence")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if !bytes.Equal(result.Audio, audio) {
		t.Error("audio bytes differ from server response")
	}
	if result.Format != "mp3" {
		t.Errorf("format = %s, want mp3", result.Format)
	}
	if result.DurationSeconds < 1 {
		t.Errorf("duration = %d, want >= 1", result.DurationSeconds)
	}
	if gotPath != "/v1/text-to-speech/voice-1" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAPIKey != "test-key" {
		t.Errorf("api key header = %s", gotAPIKey)
	}
	if gotBody.Text == "" || gotBody.ModelID != "model-1" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestSynthesizeRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"detail":{"status":"too_many_requests","message":"slow down"}}`))
	})

	_, err := client.Synthesize(context.Background(), "some text")
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SynthesisError", err)
	}
	if serr.Kind != FailureRateLimited {
		t.Errorf("kind = %s, want rate_limited", serr.Kind)
	}
	if !serr.Retryable() {
		t.Error("rate limited failures must be retryable")
	}
}

func TestSynthesizeServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Synthesize(context.Background(), "some text")
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SynthesisError", err)
	}
	if serr.Kind != FailureUnavailable {
		t.Errorf("kind = %s, want unavailable", serr.Kind)
	}
}

func TestSynthesizeEmptyBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.Synthesize(context.Background(), "some text")
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SynthesisError", err)
	}
	if serr.Kind != FailureMalformedOutput {
		t.Errorf("kind = %s, want malformed_output", serr.Kind)
	}
	if serr.Retryable() {
		t.Error("malformed output must not be retryable")
	}
}

func TestSynthesizeNonAudioContentType(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>oops</html>"))
	})

	_, err := client.Synthesize(context.Background(), "some text")
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SynthesisError", err)
	}
	if serr.Kind != FailureMalformedOutput {
		t.Errorf("kind = %s, want malformed_output", serr.Kind)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server must not be called for empty text")
	})

	_, err := client.Synthesize(context.Background(), "   ")
	var serr *SynthesisError
	if !errors.As(err, &serr) {
		t.Fatalf("error = %v, want *SynthesisError", err)
	}
}

func TestEstimateDurationSeconds(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"one", 1},
		{"one two three four five six seven eight nine ten eleven twelve thirteen", 5},
		{"", 1},
	}
	for _, tt := range tests {
		if got := estimateDurationSeconds(tt.text); got != tt.want {
			t.Errorf("estimateDurationSeconds(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}
