package splitter

import (
	"strings"
	"unicode/utf8"
)

// separators ordered from coarsest to finest. A piece that still exceeds the
// chunk size after the finest separator gets a hard character cut.
var separators = []string{"\n\n", "\n", ". ", " "}

// Splitter cuts plain text into ordered, size-bounded chunks. Consecutive
// chunks share up to Overlap trailing/leading runes so meaning survives chunk
// boundaries. Splitting is deterministic and loses no content: concatenating
// the chunks with the shared overlap removed reproduces the input.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New returns a splitter for the given chunk size and overlap, both counted
// in runes. Overlap is capped below the chunk size so splitting always makes
// forward progress.
func New(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}
}

// Split returns the ordered chunk texts for text.
func (s *Splitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}
	return s.merge(s.segment(text, 0))
}

// segment recursively cuts text into pieces of at most chunkSize runes,
// trying the coarsest separator first. Each separator stays attached to the
// piece it terminates, so the pieces concatenate back to the input.
func (s *Splitter) segment(text string, level int) []string {
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}
	if level == len(separators) {
		return s.hardSplit(text)
	}
	var out []string
	for _, piece := range splitAfter(text, separators[level]) {
		if runeLen(piece) <= s.chunkSize {
			out = append(out, piece)
		} else {
			out = append(out, s.segment(piece, level+1)...)
		}
	}
	return out
}

// hardSplit cuts an unbreakable run at rune boundaries. The first piece fills
// a whole chunk; subsequent pieces leave room for the overlap the merge stage
// carries in front of them.
func (s *Splitter) hardSplit(text string) []string {
	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}
	out := []string{string(runes[:s.chunkSize])}
	step := s.chunkSize - s.overlap
	for i := s.chunkSize; i < len(runes); i += step {
		end := i + step
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
	}
	return out
}

// merge packs pieces into chunks of at most chunkSize runes, seeding each new
// chunk with the tail of the previous one. The carried tail shrinks when a
// large piece would otherwise push the chunk past the limit.
func (s *Splitter) merge(pieces []string) []string {
	var chunks []string
	var cur []rune
	carry := 0 // runes at the head of cur that repeat the previous chunk

	flush := func() {
		if len(cur) <= carry {
			return // nothing fresh accumulated
		}
		chunks = append(chunks, string(cur))
		from := len(cur) - s.overlap
		if from < 0 {
			from = 0
		}
		tail := make([]rune, len(cur)-from)
		copy(tail, cur[from:])
		cur = tail
		carry = len(cur)
	}

	for _, piece := range pieces {
		r := []rune(piece)
		if len(cur)+len(r) > s.chunkSize {
			flush()
		}
		if len(cur)+len(r) > s.chunkSize {
			keep := s.chunkSize - len(r)
			if keep < 0 {
				keep = 0
			}
			if keep < len(cur) {
				cur = cur[len(cur)-keep:]
				carry = len(cur)
			}
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}

// splitAfter splits on sep keeping the separator with the preceding piece and
// dropping only the empty trailing piece strings.SplitAfter can produce.
func splitAfter(text, sep string) []string {
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
