// Package corpus holds the immutable, ordered set of chunks produced by one ingestion.
package corpus

import "sort"

// Chunk is a slice of document text with its page and position.
type Chunk struct {
	// ID is unique within a corpus. Ingestion assigns ID == Ordinal.
	ID int `json:"chunk_id"`
	// Page is 1-based.
	Page int `json:"page"`
	// Ordinal is the chunk's creation order within the corpus.
	Ordinal     int    `json:"ordinal"`
	Text        string `json:"text"`
	FirstLine   string `json:"first_line"`
	TotalChunks int    `json:"total_chunks"`
}

// Corpus is read-only after New returns.
type Corpus struct {
	chunks []Chunk
	byID   map[int]int
	pages  int
}

// New builds a corpus from chunks. The slice is copied and sorted by Ordinal;
// pages below 1 are clamped to 1.
func New(chunks []Chunk) *Corpus {
	cp := make([]Chunk, len(chunks))
	copy(cp, chunks)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Ordinal < cp[j].Ordinal })

	c := &Corpus{
		chunks: cp,
		byID:   make(map[int]int, len(cp)),
	}
	for i := range cp {
		if cp[i].Page < 1 {
			cp[i].Page = 1
		}
		if cp[i].Page > c.pages {
			c.pages = cp[i].Page
		}
		c.byID[cp[i].ID] = i
	}
	return c
}

// Len returns the number of chunks.
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.chunks)
}

// Pages returns the highest page number seen.
func (c *Corpus) Pages() int {
	if c == nil {
		return 0
	}
	return c.pages
}

// Get looks up a chunk by ID.
func (c *Corpus) Get(id int) (Chunk, bool) {
	if c == nil {
		return Chunk{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Chunk{}, false
	}
	return c.chunks[i], true
}

// Chunks returns a copy of all chunks in ordinal order.
func (c *Corpus) Chunks() []Chunk {
	if c == nil {
		return nil
	}
	out := make([]Chunk, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// ByPages returns every chunk whose page is in pages, in ordinal order.
func (c *Corpus) ByPages(pages []int) []Chunk {
	if c == nil || len(pages) == 0 {
		return nil
	}
	want := make(map[int]struct{}, len(pages))
	for _, p := range pages {
		want[p] = struct{}{}
	}

	var out []Chunk
	for _, ch := range c.chunks {
		if _, ok := want[ch.Page]; ok {
			out = append(out, ch)
		}
	}
	return out
}
