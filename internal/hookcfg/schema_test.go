package hookcfg

import (
	"strings"
	"testing"
)

func TestValidateDocumentAccepts(t *testing.T) {
	if err := ValidateDocument([]byte(sampleDocument)); err != nil {
		t.Errorf("sample document should validate: %v", err)
	}
}

func TestValidateDocumentRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"missing repos",
			"exclude: foo\n",
			"repos",
		},
		{
			"unknown hook field",
			"repos:\n  - repo: x\n    rev: v1\n    hooks:\n      - id: a\n        entrypoint: nope\n",
			"entrypoint",
		},
		{
			"wrong args type",
			"repos:\n  - repo: x\n    rev: v1\n    hooks:\n      - id: a\n        args: --fix\n",
			"args",
		},
		{
			"empty hooks",
			"repos:\n  - repo: x\n    rev: v1\n    hooks: []\n",
			"hooks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}
