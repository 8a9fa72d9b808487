package domain

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// DefaultEmbeddingDimensions is the vector size of the default embedding model.
const DefaultEmbeddingDimensions = 768

// IsZeroVector reports whether v is empty or all components are zero.
// Such a vector signals an upstream embedding failure.
func IsZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// EncodeVector packs v as little-endian float32s.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector reverses EncodeVector.
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob of %d bytes is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Similarity returns 1 - cosine distance, clamped to [0, 1].
// Vectors of different length or zero norm score 0.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	distance := 1 - dot/(na*nb)
	sim := 1 - distance
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	default:
		return sim
	}
}

// RankRecords scores records of owner against query and returns at most k
// results by similarity descending, ties ordered by document id. Records
// of other owners, records outside subCollection when it is set, and
// records whose dimension differs from the query are ignored. A zero query
// vector or k <= 0 yields no results.
func RankRecords(records []EmbeddingRecord, owner Owner, query []float32, k int, subCollection string) []RetrievalResult {
	if k <= 0 || IsZeroVector(query) {
		return nil
	}

	type scored struct {
		id     string
		result RetrievalResult
	}
	var candidates []scored
	for i := range records {
		r := &records[i]
		if r.Owner != owner || len(r.Vector) != len(query) {
			continue
		}
		if subCollection != "" && r.Metadata.ParentCollection != subCollection {
			continue
		}
		candidates = append(candidates, scored{
			id: r.DocumentID,
			result: RetrievalResult{
				Text:       r.Text,
				Metadata:   r.Metadata,
				Similarity: Similarity(query, r.Vector),
			},
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].result.Similarity != candidates[j].result.Similarity {
			return candidates[i].result.Similarity > candidates[j].result.Similarity
		}
		return candidates[i].id < candidates[j].id
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	results := make([]RetrievalResult, len(candidates))
	for i := range candidates {
		results[i] = candidates[i].result
	}
	return results
}
