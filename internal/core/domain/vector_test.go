package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsZeroVector(t *testing.T) {
	assert.True(t, IsZeroVector(nil))
	assert.True(t, IsZeroVector(make([]float32, 768)))
	assert.False(t, IsZeroVector([]float32{0, 0, 0.01}))
}

// TestSimilarity tests the cosine similarity transform and its bounds
func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite clamps to zero", a: []float32{1, 0}, b: []float32{-1, 0}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
		{name: "length mismatch", a: []float32{1}, b: []float32{1, 0}, want: 0},
		{name: "scaled", a: []float32{1, 1}, b: []float32{3, 3}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-6)
		})
	}
}

func TestSimilarity_Monotonic(t *testing.T) {
	q := []float32{1, 0}
	closer := Similarity(q, []float32{0.9, 0.1})
	farther := Similarity(q, []float32{0.5, 0.5})
	assert.Greater(t, closer, farther)
}

func TestRankRecords(t *testing.T) {
	rec := func(id string, owner Owner, parent string, v ...float32) EmbeddingRecord {
		return EmbeddingRecord{
			DocumentID: id,
			Owner:      owner,
			Text:       id,
			Vector:     v,
			Metadata:   DocumentMetadata{Owner: owner, EntityID: id, ParentCollection: parent},
		}
	}
	records := []EmbeddingRecord{
		rec("slide_b", "alice", "p1", 1, 0),
		rec("slide_a", "alice", "p2", 1, 0),
		rec("slide_c", "alice", "p1", 0.5, 0.5),
		rec("slide_x", "bob", "p1", 1, 0),
		rec("slide_short", "alice", "p1", 1),
	}

	t.Run("ranked with id tie-break", func(t *testing.T) {
		got := RankRecords(records, "alice", []float32{1, 0}, 5, "")
		ids := make([]string, len(got))
		for i := range got {
			ids[i] = got[i].Text
		}
		assert.Equal(t, []string{"slide_a", "slide_b", "slide_c"}, ids)
	})

	t.Run("k bounds results", func(t *testing.T) {
		assert.Len(t, RankRecords(records, "alice", []float32{1, 0}, 1, ""), 1)
	})

	t.Run("sub-collection filter", func(t *testing.T) {
		got := RankRecords(records, "alice", []float32{1, 0}, 5, "p2")
		assert.Len(t, got, 1)
		assert.Equal(t, "slide_a", got[0].Text)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Empty(t, RankRecords(records, "alice", []float32{0, 0}, 5, ""))
	})

	t.Run("owner isolation", func(t *testing.T) {
		for _, r := range RankRecords(records, "bob", []float32{1, 0}, 5, "") {
			assert.Equal(t, Owner("bob"), r.Metadata.Owner)
		}
	})
}

func TestVectorCodec(t *testing.T) {
	v := []float32{0.5, -1.25, 3e-7, 0}
	got, err := DecodeVector(EncodeVector(v))
	assert.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = DecodeVector([]byte{1, 2, 3})
	assert.Error(t, err)

	empty, err := DecodeVector(nil)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}
