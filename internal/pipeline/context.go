package pipeline

import (
	"fmt"
	"strings"

	"github.com/DreamCats/docqa/internal/retrieval"
)

// contextBlocks renders the top n retrieved chunks as drafting context, one
// block per chunk headed by its citation id.
func contextBlocks(items []retrieval.Retrieved, n int) string {
	if n > len(items) {
		n = len(items)
	}
	blocks := make([]string, n)
	for i := 0; i < n; i++ {
		blocks[i] = fmt.Sprintf("[%s] %s", items[i].Chunk.ID, items[i].Chunk.Text)
	}
	return strings.Join(blocks, "\n\n")
}

// topIDs returns the ids of the top n retrieved chunks.
func topIDs(items []retrieval.Retrieved, n int) []string {
	if n > len(items) {
		n = len(items)
	}
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = items[i].Chunk.ID
	}
	return ids
}

// evidenceWindow concatenates the top n chunk texts for support checking.
func evidenceWindow(items []retrieval.Retrieved, n int) string {
	if n > len(items) {
		n = len(items)
	}
	texts := make([]string, n)
	for i := 0; i < n; i++ {
		texts[i] = items[i].Chunk.Text
	}
	return strings.Join(texts, "\n")
}

// forceCitations appends any missing [CIT:id] markers so the answer always
// carries its top citations even when the model dropped them.
func forceCitations(answer string, ids []string) string {
	for _, id := range ids {
		marker := fmt.Sprintf("[CIT:%s]", id)
		if !strings.Contains(answer, marker) {
			answer += " " + marker
		}
	}
	return answer
}
