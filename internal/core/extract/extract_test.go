package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/studyowl/studyowl/internal/core"
)

func TestTextPlainFormats(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
	}{
		{"txt", "notes.txt", "lecture one\nlecture two"},
		{"md", "README.md", "# Title\n\nSome *markdown* body."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Text(tt.file, []byte(tt.data))
			if err != nil {
				t.Fatalf("Text(%s): %v", tt.file, err)
			}
			if got != tt.data {
				t.Errorf("got %q, want %q", got, tt.data)
			}
		})
	}
}

func TestTextCSVRendersAllRows(t *testing.T) {
	data := "name,score\nalice,91\nbob,78\n"
	got, err := Text("grades.csv", []byte(data))
	if err != nil {
		t.Fatal(err)
	}
	for _, cell := range []string{"name", "score", "alice", "91", "bob", "78"} {
		if !strings.Contains(got, cell) {
			t.Errorf("rendered table missing %q:\n%s", cell, got)
		}
	}
}

func TestTextUnsupportedFormat(t *testing.T) {
	_, err := Text("slides.pptx", []byte("binary"))
	var unsupported *core.UnsupportedFormatError
	if !errors.As(err, &unsupported) {
		t.Fatalf("want UnsupportedFormatError, got %v", err)
	}
	if unsupported.Format != "pptx" {
		t.Errorf("error names format %q, want pptx", unsupported.Format)
	}
}

func TestTextCorruptFileIsExtractionError(t *testing.T) {
	tests := []struct {
		name string
		file string
	}{
		{"pdf", "broken.pdf"},
		{"xlsx", "broken.xlsx"},
		{"docx", "broken.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Text(tt.file, []byte("not really a "+tt.name))
			var extraction *core.ExtractionError
			if !errors.As(err, &extraction) {
				t.Fatalf("want ExtractionError, got %v", err)
			}
			if extraction.File != tt.file {
				t.Errorf("error names file %q, want %q", extraction.File, tt.file)
			}
		})
	}
}

func TestTextDropsInvalidUTF8(t *testing.T) {
	got, err := Text("raw.txt", []byte{'o', 'k', 0xff, 0xfe, '!'})
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok!" {
		t.Errorf("got %q, want %q", got, "ok!")
	}
}
