package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFeedbackShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"object", `{"score": "85", "feedback": "good"}`},
		{"string-wrapped", `"{\"score\": \"85\", \"feedback\": \"good\"}"`},
		{"double-wrapped", `"\"{\\\"score\\\": \\\"85\\\", \\\"feedback\\\": \\\"good\\\"}\""`},
		{"numeric score", `{"score": 85, "feedback": "good"}`},
		{"fenced", "```json\n{\"score\": \"85\", \"feedback\": \"good\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, err := DecodeFeedback([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, "85", fb.Score)
			assert.Equal(t, "good", fb.Feedback)
		})
	}
}

func TestDecodeFeedbackListFields(t *testing.T) {
	fb, err := DecodeFeedback([]byte(`{"score": "40", "missing_points": ["base case", "memo table"]}`))
	require.NoError(t, err)
	assert.Equal(t, "base case\nmemo table", fb.MissingPoints)
}

func TestDecodeFeedbackMalformed(t *testing.T) {
	for _, body := range []string{``, `[]`, `"plain words"`, `{"unrelated": true}`, `{"score": {"nested": 1}}`} {
		_, err := DecodeFeedback([]byte(body))
		assert.ErrorIs(t, err, ErrMalformedResponse, "body %q", body)
	}
}

func TestDecodeTranscriptShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json string", `"hello there"`, "hello there"},
		{"original_text", `{"original_text": "hello there"}`, "hello there"},
		{"text", `{"text": "hello there"}`, "hello there"},
		{"raw fallback", `hello there`, "hello there"},
		{"unknown object falls back to body", `{"words": 2}`, `{"words": 2}`},
		{"empty string", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTranscript([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTranscriptBackendError(t *testing.T) {
	_, err := decodeTranscript([]byte(`{"Error": "Video not received"}`))
	require.Error(t, err)
	assert.Equal(t, "Video not received", err.Error())
}

func TestScoreValue(t *testing.T) {
	tests := []struct {
		score string
		want  int
		ok    bool
	}{
		{"85", 85, true},
		{" 72.6 ", 73, true},
		{"90/100", 90, true},
		{"64%", 64, true},
		{"", 0, false},
		{"excellent", 0, false},
		{"150", 0, false},
	}
	for _, tt := range tests {
		got, ok := Feedback{Score: tt.score}.ScoreValue()
		assert.Equal(t, tt.ok, ok, "ScoreValue(%q) ok", tt.score)
		assert.Equal(t, tt.want, got, "ScoreValue(%q)", tt.score)
	}
}
