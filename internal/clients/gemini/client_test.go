package gemini

import (
	"StoryLift-api/internal/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestSupportedLanguage(t *testing.T) {
	for _, code := range []string{"en", "zh", "ja", "ar"} {
		if !SupportedLanguage(code) {
			t.Errorf("%s should be supported", code)
		}
	}
	for _, code := range []string{"", "xx", "EN", "eng"} {
		if SupportedLanguage(code) {
			t.Errorf("%s should not be supported", code)
		}
	}
}

func TestBuildPromptPhotoVariant(t *testing.T) {
	c := &Client{promptHeader: "ENHANCE THE STORY."}
	out := c.buildPrompt(models.EnhancementPrompt{
		Type:           models.PromptTypePhoto,
		UserTranscript: "a walk in the park",
		Language:       "fr",
	})
	if !strings.HasPrefix(out, "ENHANCE THE STORY.") {
		t.Error("prompt must start with the configured header")
	}
	if !strings.Contains(out, "a walk in the park") {
		t.Error("prompt must carry the user transcript")
	}
	if !strings.Contains(out, "French") {
		t.Error("prompt must name the target language")
	}
	if !strings.Contains(out, "photo") {
		t.Error("photo variant must reference the photo")
	}
	if strings.Contains(out, "SOURCE CLIP TRANSCRIPT") {
		t.Error("photo variant must not carry clip grounding")
	}
	if !strings.Contains(out, `"enhanced_transcript"`) || !strings.Contains(out, `"insights"`) {
		t.Error("prompt must state the JSON output contract")
	}
}

func TestBuildPromptYouTubeVariant(t *testing.T) {
	c := &Client{promptHeader: "ENHANCE THE STORY."}
	out := c.buildPrompt(models.EnhancementPrompt{
		Type:             models.PromptTypeYouTube,
		UserTranscript:   "my take",
		SourceTranscript: "the clip said something",
		Language:         "en",
	})
	if !strings.Contains(out, "SOURCE CLIP TRANSCRIPT") {
		t.Error("youtube variant must carry the clip transcript section")
	}
	if !strings.Contains(out, "the clip said something") {
		t.Error("youtube variant must embed the source transcript")
	}
}

func TestBuildPromptUnknownLanguageFallsBack(t *testing.T) {
	c := &Client{promptHeader: "H"}
	out := c.buildPrompt(models.EnhancementPrompt{
		Type:           models.PromptTypePhoto,
		UserTranscript: "s",
		Language:       "xx",
	})
	if !strings.Contains(out, "English") {
		t.Error("unknown language should fall back to English")
	}
}

func TestCleanJSONString(t *testing.T) {
	want := `{"enhanced_transcript": "hi", "insights": {"plot": "p"}}`
	tests := []struct {
		name string
		raw  string
	}{
		{"plain", want},
		{"markdown fenced", "```json\n" + want + "\n```"},
		{"bare fence", "```\n" + want + "\n```"},
		{"leading chatter", "Here is the result:\n" + want},
		{"trailing chatter", want + "\nHope this helps!"},
		{"surrounding whitespace", "\n\n  " + want + "  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cleanJSONString(tt.raw)
			if got != want {
				t.Errorf("cleanJSONString(%q) = %q, want %q", tt.raw, got, want)
			}
			var parsed models.EnhancementAnalysis
			if err := json.Unmarshal([]byte(got), &parsed); err != nil {
				t.Errorf("cleaned output is not valid JSON: %v", err)
			}
		})
	}
}

func TestCleanJSONStringStripsControlCharacters(t *testing.T) {
	raw := "{\"enhanced_transcript\": \"hi\x00\x07\", \"insights\": {\"plot\": \"p\"}}"
	got := cleanJSONString(raw)
	if strings.ContainsRune(got, 0x00) || strings.ContainsRune(got, 0x07) {
		t.Error("control characters must be stripped")
	}
	var parsed models.EnhancementAnalysis
	if err := json.Unmarshal([]byte(got), &parsed); err != nil {
		t.Fatalf("cleaned output is not valid JSON: %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"wrapped deadline", fmt.Errorf("call failed: %w", context.DeadlineExceeded), FailureTimeout},
		{"bad request", &googleapi.Error{Code: 400}, FailureRejectedInput},
		{"payload too large", &googleapi.Error{Code: 413}, FailureRejectedInput},
		{"gateway timeout", &googleapi.Error{Code: 504}, FailureTimeout},
		{"server error", &googleapi.Error{Code: 500}, FailureUnreachable},
		{"plain error", errors.New("connection refused"), FailureUnreachable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.err)
			if got.Kind != tt.want {
				t.Errorf("classify(%v).Kind = %s, want %s", tt.err, got.Kind, tt.want)
			}
		})
	}
}

func TestAnalysisErrorRetryable(t *testing.T) {
	if (&AnalysisError{Kind: FailureRejectedInput}).Retryable() {
		t.Error("rejected input must not be retryable")
	}
	if !(&AnalysisError{Kind: FailureUnreachable}).Retryable() {
		t.Error("unreachable must be retryable")
	}
	if !(&AnalysisError{Kind: FailureTimeout}).Retryable() {
		t.Error("timeout must be retryable")
	}
}
