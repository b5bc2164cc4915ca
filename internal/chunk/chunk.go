// Package chunk splits raw document text into retrieval units with stable,
// deterministic identifiers.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultTargetChars is the character budget for sentence-based chunks.
	DefaultTargetChars = 900
	// DefaultOverlapSentences is the number of trailing sentences carried
	// into the next chunk for continuity.
	DefaultOverlapSentences = 1
	// DefaultWindowChars is the window size for the fixed-size fallback.
	DefaultWindowChars = 800
)

// Chunk is a single retrieval unit. Immutable once created.
type Chunk struct {
	ID    string `json:"id"`
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
	Page  int    `json:"page,omitempty"`
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Sentence terminator followed by whitespace and a capital letter or digit.
	sentenceRe = regexp.MustCompile(`([.!?])\s+([A-Z0-9])`)
)

// chunkID derives the stable id for the ordinal-th chunk of a document.
func chunkID(docID string, ordinal int) string {
	return fmt.Sprintf("%s#%d", docID, ordinal)
}

// splitSentences splits normalized text on sentence boundaries, keeping the
// terminator with the preceding sentence.
func splitSentences(text string) []string {
	marked := sentenceRe.ReplaceAllString(text, "$1\x00$2")
	parts := strings.Split(marked, "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Sentence accumulates sentences into chunks of roughly targetChars
// characters, seeding each new chunk with the last overlap sentences of the
// previous one. Identical input always yields identical ids and text.
func Sentence(raw, docID string, targetChars, overlap int) []Chunk {
	if targetChars <= 0 {
		targetChars = DefaultTargetChars
	}
	if overlap < 0 {
		overlap = 0
	}

	text := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []Chunk
	var buf []string
	bufLen := 0
	ordinal := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(buf, " "))
		if joined != "" {
			chunks = append(chunks, Chunk{ID: chunkID(docID, ordinal), DocID: docID, Text: joined})
			ordinal++
		}
	}

	for _, s := range sentences {
		if bufLen+len(s)+1 > targetChars && len(buf) > 0 {
			flush()
			keep := overlap
			if keep > len(buf) {
				keep = len(buf)
			}
			buf = buf[len(buf)-keep:]
			bufLen = len(strings.Join(buf, " "))
		}
		if bufLen > 0 {
			bufLen++
		}
		buf = append(buf, s)
		bufLen += len(s)
	}
	if len(buf) > 0 {
		flush()
	}
	return chunks
}

// Simple windows text into fixed-size character slices with no overlap.
// Whitespace-only slices are dropped but still consume an ordinal, so ids
// stay deterministic for a given input.
func Simple(text, docID string, chars int) []Chunk {
	if chars <= 0 {
		chars = DefaultWindowChars
	}
	var chunks []Chunk
	for i, j := 0, 0; i < len(text); i, j = i+chars, j+1 {
		end := i + chars
		if end > len(text) {
			end = len(text)
		}
		slice := text[i:end]
		if strings.TrimSpace(slice) == "" {
			continue
		}
		chunks = append(chunks, Chunk{ID: chunkID(docID, j), DocID: docID, Text: slice})
	}
	return chunks
}

// Smart prefers sentence-based chunking with a one-sentence overlap and falls
// back to fixed windows when segmentation produces nothing.
func Smart(text, docID string) []Chunk {
	if c := Sentence(text, docID, DefaultTargetChars, DefaultOverlapSentences); len(c) > 0 {
		return c
	}
	return Simple(text, docID, DefaultWindowChars)
}
