package markdown

import (
	"strings"
	"testing"
)

func TestToHTML(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		contains []string
	}{
		{"heading with id", "# Attention Is All You Need", []string{"<h1", `id="attention-is-all-you-need"`, "Attention Is All You Need</h1>"}},
		{"emphasis", "some *tokens* here", []string{"<em>tokens</em>"}},
		{"gfm table", "| a | b |\n|---|---|\n| 1 | 2 |", []string{"<table>", "<td>1</td>"}},
		{"strikethrough", "~~hallucination~~", []string{"<del>hallucination</del>"}},
		{"raw html kept", "<figure>x</figure>", []string{"<figure>x</figure>"}},
		{"unsafe html passed through", "<script>alert(1)</script>", []string{"<script>alert(1)</script>"}},
		{"fenced code highlighted", "```go\nfunc main() {}\n```", []string{"<pre", "background-color:#272822", "<span"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(tt.source)
			if err != nil {
				t.Fatalf("ToHTML: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML(%q) = %q, missing %q", tt.source, got, want)
				}
			}
		})
	}
}

func TestToHTMLEmpty(t *testing.T) {
	got, err := ToHTML("")
	if err != nil {
		t.Fatalf("ToHTML: %v", err)
	}
	if got != "" {
		t.Errorf("ToHTML(\"\") = %q, want empty", got)
	}
}
