package tts

import (
	"slices"
	"strings"
	"testing"
)

func collect(text string) []string {
	return slices.Collect(ChunkText(text))
}

func TestChunkText_Examples(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "comma and exclamation flush",
			input:    "Hello, world!",
			expected: []string{"Hello, ", "  ", "world! "},
		},
		{
			name:     "each period flushes",
			input:    "wait... ok",
			expected: []string{"wait. ", ". ", ". ", "  ", "ok "},
		},
		{
			name:     "no splitters",
			input:    "hello",
			expected: []string{"hello "},
		},
		{
			name:     "em dash is one splitter",
			input:    "yes—no",
			expected: []string{"yes— ", "no "},
		},
		{
			name:     "brackets",
			input:    "(a)",
			expected: []string{"( ", "a) "},
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collect(tt.input)
			if !slices.Equal(got, tt.expected) {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestChunkText_Reconstructs(t *testing.T) {
	inputs := []string{
		"Hello, world!",
		"wait... ok",
		"The quick brown fox — jumps over [the] lazy dog; really? Yes: twice!",
		"  leading and trailing  ",
		"no-splitters-but-hyphens",
		"unicode: café, naïve, 日本語 text.",
		"}}}",
		"\xff\xfe invalid bytes",
	}

	for _, in := range inputs {
		var b strings.Builder
		for chunk := range ChunkText(in) {
			if !strings.HasSuffix(chunk, " ") {
				t.Fatalf("Expected chunk %q to end with a space", chunk)
			}
			b.WriteString(strings.TrimSuffix(chunk, " "))
		}
		if b.String() != in {
			t.Errorf("Expected reconstruction %q, got %q", in, b.String())
		}
	}
}

func TestChunkText_NoSplitterYieldsOneChunk(t *testing.T) {
	for _, in := range []string{"a", "abc", "HelloWorld", "café"} {
		got := collect(in)
		if len(got) != 1 || got[0] != in+" " {
			t.Errorf("Expected single chunk %q, got %q", in+" ", got)
		}
	}
}

func TestChunkText_Restartable(t *testing.T) {
	seq := ChunkText("one, two")

	first := slices.Collect(seq)
	second := slices.Collect(seq)

	if !slices.Equal(first, second) {
		t.Errorf("Expected identical chunks on second pass, got %q and %q", first, second)
	}
}

func TestChunkText_EarlyBreak(t *testing.T) {
	var got []string
	for chunk := range ChunkText("a, b, c, d") {
		got = append(got, chunk)
		if len(got) == 2 {
			break
		}
	}
	if len(got) != 2 {
		t.Errorf("Expected 2 chunks before break, got %d", len(got))
	}
}
