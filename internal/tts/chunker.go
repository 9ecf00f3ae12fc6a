package tts

import (
	"iter"
	"strings"
	"unicode/utf8"
)

// splitters are the characters a chunk may end on
const splitters = ".,?!;:—-()[]} "

func isSplitter(r rune) bool {
	return strings.ContainsRune(splitters, r)
}

func endsWithSplitter(s string) bool {
	r, size := utf8.DecodeLastRuneInString(s)
	return size > 0 && isSplitter(r)
}

// ChunkText splits text into small speakable fragments so synthesis can start
// before the whole text is sent. Every chunk carries one trailing space;
// removing it from each chunk and concatenating reproduces text exactly.
//
// The sequence is lazy and may be ranged over more than once.
func ChunkText(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var buf strings.Builder

		for i, r := range text {
			// copy source bytes so invalid UTF-8 survives unchanged
			_, size := utf8.DecodeRuneInString(text[i:])
			ch := text[i : i+size]

			switch {
			case endsWithSplitter(buf.String()):
				if !yield(buf.String() + " ") {
					return
				}
				buf.Reset()
				buf.WriteString(ch)
			case isSplitter(r):
				buf.WriteString(ch)
				buf.WriteByte(' ')
				if !yield(buf.String()) {
					return
				}
				buf.Reset()
			default:
				buf.WriteString(ch)
			}
		}

		if buf.Len() > 0 {
			yield(buf.String() + " ")
		}
	}
}
