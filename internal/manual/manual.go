// Package manual retrieves device-manual context for the step generation
// prompt. Chunks are indexed from plain-text files at startup and scored by
// keyword overlap at query time. Retrieval never makes an upstream call and
// never fails a request: anything going wrong degrades to empty context.
package manual

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

const (
	chunkWords   = 500
	chunkOverlap = 50
	minChunkLen  = 100
)

// Chunk is one indexed manual fragment.
type Chunk struct {
	Source string
	Text   string
	terms  map[string]int
}

// Index holds the loaded manual chunks.
type Index struct {
	chunks []Chunk
}

// Load indexes every .txt and .md file under dir. A missing or empty
// directory yields a usable empty index.
func Load(dir string) *Index {
	idx := &Index{}
	if dir == "" {
		return idx
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("warn: manual dir %s unreadable: %v", dir, err)
		return idx
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("warn: skipping manual %s: %v", e.Name(), err)
			continue
		}
		idx.addDocument(e.Name(), string(raw))
	}

	log.Printf("manual index ready: %d chunks from %s", len(idx.chunks), dir)
	return idx
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int { return len(x.chunks) }

func (x *Index) addDocument(source, text string) {
	words := strings.Fields(text)
	step := chunkWords - chunkOverlap
	for i := 0; i < len(words); i += step {
		end := i + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[i:end], " ")
		if len(chunk) < minChunkLen {
			continue
		}
		x.chunks = append(x.chunks, Chunk{
			Source: source,
			Text:   chunk,
			terms:  termCounts(chunk),
		})
		if end == len(words) {
			break
		}
	}
}

// Retrieve returns the text of the n best-matching chunks for the query.
// deviceType, when known, contributes to the score like extra query terms.
func (x *Index) Retrieve(query, deviceType string, n int) []string {
	if len(x.chunks) == 0 || n <= 0 {
		return nil
	}

	queryTerms := termCounts(query + " " + deviceType)
	if len(queryTerms) == 0 {
		return nil
	}

	type scored struct {
		idx   int
		score int
	}
	matches := make([]scored, 0, len(x.chunks))
	for i := range x.chunks {
		s := 0
		for term := range queryTerms {
			s += x.chunks[i].terms[term]
		}
		if s > 0 {
			matches = append(matches, scored{idx: i, score: s})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].score > matches[b].score
	})
	if len(matches) > n {
		matches = matches[:n]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = x.chunks[m.idx].Text
	}
	return out
}

// stopwords carry no retrieval signal and would otherwise dominate scores.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "on": true, "is": true, "it": true, "my": true,
	"for": true, "with": true, "how": true, "do": true, "i": true,
}

func termCounts(s string) map[string]int {
	counts := make(map[string]int)
	for _, w := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	}) {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		counts[w]++
	}
	return counts
}
