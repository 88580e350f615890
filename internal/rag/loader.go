package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// knowledgeDocument is the on-disk JSON shape of a corpus entry.
type knowledgeDocument struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// LoadKnowledgeBase reads every *.json file in dir (sorted by filename so the
// corpus order is deterministic) and returns the documents they contain.
// Each file must hold a JSON array of {id, text, metadata?} objects.
// Entries with a blank id or text are skipped.
func LoadKnowledgeBase(dir string) ([]Document, error) {
	pattern := filepath.Join(dir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("rag: bad knowledge dir pattern %q: %w", pattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("rag: no knowledge files found in %s", dir)
	}
	sort.Strings(files)

	var docs []Document
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("rag: read knowledge file %s: %w", path, err)
		}

		var entries []knowledgeDocument
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("rag: parse knowledge file %s: %w", path, err)
		}

		for _, e := range entries {
			text := strings.TrimSpace(e.Text)
			if e.ID == "" || text == "" {
				continue
			}
			meta := e.Metadata
			if meta == nil {
				meta = map[string]string{}
			}
			docs = append(docs, Document{ID: e.ID, Text: text, Metadata: meta})
		}
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("rag: knowledge files in %s contained no usable documents", dir)
	}

	return docs, nil
}
