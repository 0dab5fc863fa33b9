package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGoldmarkConverter_ToHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantNot      []string
	}{
		{
			name:         "heading with generated id",
			input:        "# Hello World",
			wantContains: []string{`<h1 id="hello-world">Hello World</h1>`},
			wantNot:      []string{"<!DOCTYPE", "<html"},
		},
		{
			name:         "soft line break stays soft",
			input:        "Line one\nLine two",
			wantContains: []string{"<p>Line one\nLine two</p>"},
			wantNot:      []string{"<br"},
		},
		{
			name:         "GFM table",
			input:        "| A | B |\n|---|---|\n| 1 | 2 |",
			wantContains: []string{"<table>", "<thead>", "<th>A</th>", "<td>1</td>"},
		},
		{
			name:         "GFM strikethrough",
			input:        "~~deleted~~",
			wantContains: []string{"<del>deleted</del>"},
		},
		{
			name:         "GFM autolink",
			input:        "Visit https://example.com for more",
			wantContains: []string{`<a href="https://example.com">https://example.com</a>`},
		},
		{
			name:         "GFM task list",
			input:        "- [x] Done\n- [ ] Todo",
			wantContains: []string{`type="checkbox"`, "checked"},
		},
		{
			name:         "footnote",
			input:        "Text[^1]\n\n[^1]: Note",
			wantContains: []string{"fnref:1", "Note"},
		},
		{
			name:         "raw HTML passes through",
			input:        `<div class="box">inside</div>`,
			wantContains: []string{`<div class="box">inside</div>`},
		},
		{
			name:         "highlight placeholders become mark tags",
			input:        "a " + MarkStartPlaceholder + "b" + MarkEndPlaceholder + " c",
			wantContains: []string{"<p>a <mark>b</mark> c</p>"},
			wantNot:      []string{MarkStartPlaceholder, MarkEndPlaceholder},
		},
		{
			name:         "highlighted code uses classes",
			input:        "```go\nx := 1\n```",
			wantContains: []string{`class="chroma"`},
			wantNot:      []string{"style=\"color"},
		},
		{
			name:    "empty input",
			input:   "",
			wantNot: []string{"<p>"},
		},
	}

	converter := NewGoldmarkConverter()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := converter.ToHTML(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("ToHTML() error = %v", err)
			}

			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("ToHTML() = %q, want to contain %q", got, want)
				}
			}
			for _, not := range tt.wantNot {
				if strings.Contains(got, not) {
					t.Errorf("ToHTML() = %q, should not contain %q", got, not)
				}
			}
		})
	}
}

func TestGoldmarkConverter_ToHTML_ContextCancellation(t *testing.T) {
	t.Parallel()

	converter := NewGoldmarkConverter()

	t.Run("cancelled context returns error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := converter.ToHTML(ctx, "# Test")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("deadline exceeded returns error", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		_, err := converter.ToHTML(ctx, "# Test")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
	})
}

func TestGoldmarkConverter_Deterministic(t *testing.T) {
	t.Parallel()

	input := "# Title\n\n```python\nprint('x')\n```\n\n| a |\n|---|\n| b |\n"
	converter := NewGoldmarkConverter()

	first, err := converter.ToHTML(context.Background(), input)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}
	second, err := converter.ToHTML(context.Background(), input)
	if err != nil {
		t.Fatalf("ToHTML() error = %v", err)
	}

	if first != second {
		t.Errorf("ToHTML() not deterministic:\nfirst:  %q\nsecond: %q", first, second)
	}
}
