package llm_test

import (
	"testing"

	"github.com/dineshachuthan/storyteller-backend/internal/provider/llm"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"characters":[]}`, `{"characters":[]}`},
		{"json fence", "```json\n{\"characters\":[]}\n```", `{"characters":[]}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Here is the analysis: {"a":1} hope that helps`, `{"a":1}`},
		{"no json", "I could not analyze this story.", ""},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := llm.ExtractJSON(tc.in); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
