package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadArticles reads the article corpus from a JSON file: an array of
// {"id", "title", "content"} objects. Articles without an ID get one
// derived from their position.
func LoadArticles(path string) ([]Article, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading articles file: %w", err)
	}

	var articles []Article
	if err := json.Unmarshal(content, &articles); err != nil {
		return nil, fmt.Errorf("parsing articles file %s: %w", path, err)
	}

	for i := range articles {
		if articles[i].ID == "" {
			articles[i].ID = fmt.Sprintf("article-%d", i+1)
		}
	}
	return articles, nil
}
