package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_SetAlgebra(t *testing.T) {
	reference := FieldMap{"a": "1", "b": "2"}
	candidate := FieldMap{"a": "1", "c": "3"}

	got := Diff(reference, candidate)

	assert.Equal(t, []Discrepancy{
		{Field: "b", ReferenceValue: "2", CandidateValue: NotFound},
		{Field: "c", ReferenceValue: NotFound, CandidateValue: "3"},
	}, got)
	assert.Equal(t, FieldMap{"a": "1", "b": "2"}, reference)
	assert.Equal(t, FieldMap{"a": "1", "c": "3"}, candidate)
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		reference FieldMap
		candidate FieldMap
		want      []Discrepancy
	}{
		{
			name: "both empty",
			want: nil,
		},
		{
			name:      "identical",
			reference: FieldMap{"petitioner": "Jane"},
			candidate: FieldMap{"petitioner": "Jane"},
			want:      nil,
		},
		{
			name:      "value changed",
			reference: FieldMap{"petitioner": "Jane"},
			candidate: FieldMap{"petitioner": "jane"},
			want:      []Discrepancy{{Field: "petitioner", ReferenceValue: "Jane", CandidateValue: "jane"}},
		},
		{
			name:      "sorted by key",
			reference: FieldMap{"z": "1", "m": "1", "a": "1"},
			candidate: FieldMap{},
			want: []Discrepancy{
				{Field: "a", ReferenceValue: "1", CandidateValue: NotFound},
				{Field: "m", ReferenceValue: "1", CandidateValue: NotFound},
				{Field: "z", ReferenceValue: "1", CandidateValue: NotFound},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Diff(tt.reference, tt.candidate))
		})
	}
}

func TestInspect(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		info := Inspect("")
		assert.False(t, info.Exists)
	})

	t.Run("missing file", func(t *testing.T) {
		info := Inspect("/nonexistent/doc.pdf")
		assert.Equal(t, "/nonexistent/doc.pdf", info.Path)
		assert.False(t, info.Exists)
	})

	t.Run("non-pdf file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.pdf")
		require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

		info := Inspect(path)

		assert.True(t, info.Exists)
		assert.Equal(t, int64(5), info.Size)
		assert.Zero(t, info.Pages)
	})
}
