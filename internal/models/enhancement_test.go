package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTranscriptPreview(t *testing.T) {
	tests := []struct {
		name       string
		transcript string
		n          int
		want       string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"truncated", "hello world", 5, "hello"},
		{"multibyte safe", strings.Repeat("故", 10), 3, "故故故"},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &Enhancement{EnhancedTranscript: tt.transcript}
			if got := e.TranscriptPreview(tt.n); got != tt.want {
				t.Errorf("TranscriptPreview(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestJsonNullStringMarshal(t *testing.T) {
	b, err := json.Marshal(NewJsonNullString("hi"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"hi"` {
		t.Errorf("marshal = %s", b)
	}

	b, err = json.Marshal(JsonNullString{})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "null" {
		t.Errorf("marshal of invalid = %s, want null", b)
	}
}

func TestJsonNullStringUnmarshal(t *testing.T) {
	var jns JsonNullString
	if err := json.Unmarshal([]byte(`"hi"`), &jns); err != nil {
		t.Fatal(err)
	}
	if !jns.Valid || jns.String != "hi" {
		t.Errorf("unmarshal = %+v", jns)
	}

	if err := json.Unmarshal([]byte("null"), &jns); err != nil {
		t.Fatal(err)
	}
	if jns.Valid {
		t.Error("null must unmarshal as invalid")
	}

	if err := json.Unmarshal([]byte("42"), &jns); err == nil {
		t.Error("non-string JSON must be rejected")
	}
}

func TestNewJsonNullStringEmptyIsInvalid(t *testing.T) {
	if NewJsonNullString("").Valid {
		t.Error("empty string must produce an invalid value")
	}
}
