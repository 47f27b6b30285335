package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		want   string
		source ExtractSource
	}{
		{
			name:   "json_fence",
			input:  "```json\n{\"a\":1,}\n```",
			want:   `{"a":1,}`,
			source: SourceJSONFence,
		},
		{
			name:   "json_fence_with_prose",
			input:  "Here you go:\n```json\n{\"a\": 1}\n```\nLet me know if you need more.",
			want:   `{"a": 1}`,
			source: SourceJSONFence,
		},
		{
			name:   "json_fence_wins_over_earlier_plain_fence",
			input:  "```\nnot this\n```\n```json\n{\"b\":2}\n```",
			want:   `{"b":2}`,
			source: SourceJSONFence,
		},
		{
			name:   "unclosed_json_fence",
			input:  "```json\n[1, 2]",
			want:   `[1, 2]`,
			source: SourceJSONFence,
		},
		{
			name:   "plain_fence",
			input:  "```\n[1,2]\n```",
			want:   `[1,2]`,
			source: SourceFence,
		},
		{
			name:   "plain_fence_with_language_tag",
			input:  "```javascript\n[{\"x\":true}]\n```",
			want:   `[{"x":true}]`,
			source: SourceFence,
		},
		{
			name:   "inline_fence",
			input:  "```[1,2]```",
			want:   `[1,2]`,
			source: SourceFence,
		},
		{
			name:   "bare",
			input:  "  {\"a\":1}\n",
			want:   `{"a":1}`,
			source: SourceBare,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, src := ExtractJSON(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.source, src)
		})
	}
}

func TestExtractJSON_FencedValidJSONNeedsNoRepair(t *testing.T) {
	t.Parallel()

	payloads := []string{
		`{"score": 70, "strengths": ["Go", "SQL"], "nested": {"k": "v \"quoted\""}}`,
		`[{"question": "What is 2+2?", "options": ["1","2","3","4"], "correctAnswer": 3}]`,
		`{"path": "C:\\tmp", "multi": "a\nb"}`,
	}
	for _, p := range payloads {
		raw := "Sure, here it is.\n```json\n" + p + "\n```\nAnything else?"
		got, src := ExtractJSON(raw)
		assert.Equal(t, SourceJSONFence, src)
		assert.Equal(t, p, got)
		assert.True(t, json.Valid([]byte(got)))
		repaired, applied := Repair(got)
		assert.Equal(t, got, repaired)
		assert.Empty(t, applied)
	}
}
