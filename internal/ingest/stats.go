package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"

	"research-assistant/internal/corpus"
)

// Stats describes one ingestion.
type Stats struct {
	Pages          int         `json:"pages"`
	Chunks         int         `json:"total_chunks"`
	ChunkLength    LengthStats `json:"chunk_length"`
	ChunkerVersion string      `json:"chunker_version"`
	// IndexVersion hashes the chunker version, embedding model and chunking params.
	IndexVersion string `json:"index_version"`
}

// LengthStats summarises chunk lengths in runes.
type LengthStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

func computeStats(pages int, chunks []corpus.Chunk, embeddingModel string, chunkSize, chunkOverlap int) Stats {
	lengths := make([]int, len(chunks))
	for i, c := range chunks {
		lengths[i] = utf8.RuneCountInString(c.Text)
	}

	return Stats{
		Pages:          pages,
		Chunks:         len(chunks),
		ChunkLength:    computeLengthStats(lengths),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   indexVersion(embeddingModel, chunkSize, chunkOverlap),
	}
}

func indexVersion(embeddingModel string, chunkSize, chunkOverlap int) string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d", ChunkerVersion, embeddingModel, chunkSize, chunkOverlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// computeLengthStats returns min, max, mean (2 decimals) and nearest-rank p95.
func computeLengthStats(lengths []int) LengthStats {
	if len(lengths) == 0 {
		return LengthStats{}
	}

	sorted := make([]int, len(lengths))
	copy(sorted, lengths)
	sort.Ints(sorted)

	sum := 0
	for _, l := range sorted {
		sum += l
	}
	mean := float64(sum) / float64(len(sorted))

	rank := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	rank = max(0, min(rank, len(sorted)-1))

	return LengthStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[rank],
	}
}
