package index

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// textDoc is the shape indexed into bleve for each chunk.
type textDoc struct {
	DocID string `json:"doc_id"`
	Text  string `json:"text"`
}

// buildTextMapping configures the lexical index: the English analyzer gives
// stop-word removal and porter stemming on chunk text.
func buildTextMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "text"

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = false
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	docIDField := bleve.NewTextFieldMapping()
	docIDField.Store = true
	docIDField.Index = true
	docIDField.Analyzer = "keyword"
	docMapping.AddFieldMappingsAt("doc_id", docIDField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// createTextIndex resets dir and creates a fresh persistent bleve index there.
func createTextIndex(dir string) (bleve.Index, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset text index dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create text index dir: %w", err)
	}
	idx, err := bleve.New(dir, buildTextMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return idx, nil
}
