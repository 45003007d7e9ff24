package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEmbedder_IndexAndSearch(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "vacation.md", "Employees get thirty days of paid vacation per year.")
	writeDoc(t, dir, "policies/security.txt", "Badges must be worn inside the office at all times.")
	writeDoc(t, dir, "ignored.csv", "vacation,vacation,vacation")

	e := NewEmbedder()
	require.NoError(t, e.Index(context.Background(), dir))
	require.Equal(t, 2, e.Len())

	hits, err := e.Search(context.Background(), "how many vacation days", 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "vacation.md", hits[0].Source)
	require.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = e.Search(context.Background(), "office badges", 1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("policies", "security.txt"), hits[0].Source)
}

func TestEmbedder_SearchClampsTopK(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "alpha")

	e := NewEmbedder()
	require.NoError(t, e.Index(context.Background(), dir))

	hits, err := e.Search(context.Background(), "alpha", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.InDelta(t, 1.0, hits[0].Score, 1e-9)

	hits, err = e.Search(context.Background(), "alpha", 0)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestEmbedder_MissingDirectory(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Index(context.Background(), filepath.Join(t.TempDir(), "missing")))
	require.Zero(t, e.Len())

	hits, err := e.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	require.Nil(t, hits)
}

func TestEmbedder_EmbedFuncError(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "alpha")

	e := NewEmbedder(WithEmbedFunc(func(context.Context, string) ([]float32, error) {
		return nil, errors.New("quota exceeded")
	}))
	err := e.Index(context.Background(), dir)
	require.ErrorContains(t, err, "quota exceeded")
	require.Zero(t, e.Len())
}

func TestEmbedder_ChunkSize(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "long.txt", "one two three\n\nfour five six")

	e := NewEmbedder(WithChunkSize(14))
	require.NoError(t, e.Index(context.Background(), dir))
	require.Equal(t, 2, e.Len())
}

func TestChunkText(t *testing.T) {
	tests := []struct {
		name string
		text string
		size int
		want []string
	}{
		{
			name: "paragraphs packed together",
			text: "one\n\ntwo\r\n\r\nthree",
			size: 20,
			want: []string{"one\n\ntwo\n\nthree"},
		},
		{
			name: "paragraph lines are kept",
			text: "  first line\nsecond line  \n\n\n\nnext",
			size: 100,
			want: []string{"first line\nsecond line\n\nnext"},
		},
		{
			name: "long paragraph cut at words",
			text: "aaaa bbbb cccc dddd",
			size: 9,
			want: []string{"aaaa bbbb", "cccc dddd"},
		},
		{
			name: "oversized word stays whole",
			text: strings.Repeat("x", 12),
			size: 5,
			want: []string{strings.Repeat("x", 12)},
		},
		{
			name: "blank input",
			text: " \n\n \t",
			size: 10,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, chunkText(tt.text, tt.size))
		})
	}
}

func TestCosine(t *testing.T) {
	require.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	require.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Zero(t, cosine([]float32{1}, []float32{1, 2}))
	require.Zero(t, cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestSupportedDocument(t *testing.T) {
	require.True(t, supportedDocument("notes.MD"))
	require.True(t, supportedDocument("a/b/manual.pdf"))
	require.False(t, supportedDocument("data.csv"))
}
