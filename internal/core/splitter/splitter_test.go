package splitter

import (
	"fmt"
	"strings"
	"testing"
)

// sharedOverlap returns the longest k <= max for which the last k bytes of
// prev equal the first k bytes of next.
func sharedOverlap(prev, next string, max int) int {
	if max > len(prev) {
		max = len(prev)
	}
	if max > len(next) {
		max = len(next)
	}
	for k := max; k > 0; k-- {
		if prev[len(prev)-k:] == next[:k] {
			return k
		}
	}
	return 0
}

// reconstruct concatenates chunks dropping each chunk's leading overlap.
func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, ch := range chunks {
		if i == 0 {
			b.WriteString(ch)
			continue
		}
		k := sharedOverlap(chunks[i-1], ch, overlap)
		b.WriteString(ch[k:])
	}
	return b.String()
}

func wordText(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		fmt.Fprintf(&b, "word%04d ", i)
	}
	return b.String()[:n]
}

func TestSplitSmallTextVerbatim(t *testing.T) {
	s := New(1000, 50)
	got := s.Split("short text")
	if len(got) != 1 || got[0] != "short text" {
		t.Fatalf("expected input back verbatim, got %q", got)
	}
	if s.Split("") != nil {
		t.Fatal("empty input should yield no chunks")
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := wordText(5000) + "\n\n" + wordText(3000)
	s := New(700, 80)
	a := s.Split(text)
	b := s.Split(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitSizeBound(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{"words", wordText(4200), 300, 40},
		{"paragraphs", wordText(900) + "\n\n" + wordText(1200) + "\n\n" + wordText(400), 500, 50},
		{"unbreakable", strings.Repeat("x", 3000), 250, 25},
		{"sentences", strings.Repeat("This is a sentence. ", 200), 160, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := New(tt.chunkSize, tt.overlap).Split(tt.text)
			if len(chunks) == 0 {
				t.Fatal("no chunks produced")
			}
			for i, ch := range chunks {
				if n := len([]rune(ch)); n > tt.chunkSize {
					t.Errorf("chunk %d has %d runes, limit %d", i, n, tt.chunkSize)
				}
			}
		})
	}
}

func TestSplitReconstruction(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		chunkSize int
		overlap   int
	}{
		{"paragraphs", wordText(800) + "\n\n" + wordText(950) + "\n\n" + wordText(620), 400, 50},
		{"newlines", strings.ReplaceAll(wordText(2600), "word", "li\nne"), 350, 40},
		{"plain words", wordText(3700), 500, 60},
		{"no separators", wordText(2000)[:1999] + strings.Repeat("z", 1500), 600, 70},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := New(tt.chunkSize, tt.overlap).Split(tt.text)
			if got := reconstruct(chunks, tt.overlap); got != tt.text {
				t.Errorf("reconstruction mismatch: got %d bytes, want %d", len(got), len(tt.text))
			}
		})
	}
}

func TestSplitHardCutScenario(t *testing.T) {
	// 2450 unbreakable characters at size 1000 / overlap 50: two full chunks
	// and a 550-char remainder, each adjacent pair sharing 50 characters.
	text := ""
	for i := 0; len(text) < 2450; i++ {
		text += string(rune('a' + i%26))
	}
	text = text[:2450]

	chunks := New(1000, 50).Split(text)

	wantLens := []int{1000, 1000, 550}
	if len(chunks) != len(wantLens) {
		t.Fatalf("got %d chunks, want %d", len(chunks), len(wantLens))
	}
	for i, want := range wantLens {
		if len(chunks[i]) != want {
			t.Errorf("chunk %d length = %d, want %d", i, len(chunks[i]), want)
		}
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i][:50] != chunks[i-1][len(chunks[i-1])-50:] {
			t.Errorf("chunks %d and %d do not share a 50-char overlap", i-1, i)
		}
	}
	if chunks[0]+chunks[1][50:]+chunks[2][50:] != text {
		t.Error("chunks do not reconstruct the input")
	}
}

func TestSplitOverlapCarried(t *testing.T) {
	text := wordText(2400)
	chunks := New(400, 60).Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		if sharedOverlap(chunks[i-1], chunks[i], 60) == 0 {
			t.Errorf("chunks %d and %d share no overlap", i-1, i)
		}
	}
}
