package agent

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"google.golang.org/genai"
)

const hashDimensions = 512

// EmbedFunc turns text into a vector. Vectors from one Embedder must share a dimension.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// Passage is one indexed piece of a document.
type Passage struct {
	Source string
	Text   string
	Vector []float32
}

// Hit is a passage ranked against a query.
type Hit struct {
	Passage
	Score float64
}

// Embedder indexes a documents folder and answers similarity queries over it.
type Embedder struct {
	embed     EmbedFunc
	chunkSize int
	passages  []Passage
	logger    *slog.Logger
}

type EmbedderOption func(*Embedder)

func WithEmbedFunc(fn EmbedFunc) EmbedderOption {
	return func(e *Embedder) { e.embed = fn }
}

func WithEmbedderLogger(l *slog.Logger) EmbedderOption {
	return func(e *Embedder) { e.logger = l }
}

// WithChunkSize caps passage length in bytes.
func WithChunkSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithGeminiEmbeddings embeds text with a Gemini embedding model instead of local hashing.
func WithGeminiEmbeddings(client *genai.Client, embeddingModel string) EmbedderOption {
	return WithEmbedFunc(func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.Models.EmbedContent(ctx, embeddingModel, []*genai.Content{
			{Role: genai.RoleUser, Parts: []*genai.Part{{Text: text}}},
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}
		if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return nil, errors.New("gemini embed: empty response")
		}
		return resp.Embeddings[0].Values, nil
	})
}

func NewEmbedder(opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		embed:     hashEmbed,
		chunkSize: 800,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Index walks dir and embeds every supported document below it. A missing dir leaves
// the index empty.
func (e *Embedder) Index(ctx context.Context, dir string) error {
	var passages []Passage
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !supportedDocument(path) {
			return nil
		}

		text, err := readDocument(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		source, _ := filepath.Rel(dir, path)
		for _, chunk := range chunkText(text, e.chunkSize) {
			vec, err := e.embed(ctx, chunk)
			if err != nil {
				return fmt.Errorf("embed %s: %w", source, err)
			}
			passages = append(passages, Passage{Source: source, Text: chunk, Vector: vec})
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Info("embedder: docs folder not found, search_docs will find nothing", "dir", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("embedder: %w", err)
	}

	e.passages = passages
	e.logger.Info("embedder: indexed documents", "passages", len(passages), "dir", dir)
	return nil
}

func (e *Embedder) Len() int {
	return len(e.passages)
}

// Search ranks every passage by cosine similarity to query and returns the best topK.
func (e *Embedder) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	if len(e.passages) == 0 || topK <= 0 {
		return nil, nil
	}

	q, err := e.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedder: embed query: %w", err)
	}

	hits := make([]Hit, len(e.passages))
	for i, p := range e.passages {
		hits[i] = Hit{Passage: p, Score: cosine(q, p.Vector)}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	return hits[:min(topK, len(hits))], nil
}

// hashEmbed is signed feature hashing over lower-cased words; it needs no model.
func hashEmbed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, hashDimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		h := fnv.New64a()
		h.Write([]byte(w))
		sum := h.Sum64()
		sign := float32(1)
		if sum>>63 == 1 {
			sign = -1
		}
		vec[sum%hashDimensions] += sign
	}
	return vec, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
