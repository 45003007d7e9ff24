package functions

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/m2tx/toolchat/internal/agent"
)

const docsTopK = 3

// CreateDocsSearchFunctionDeclaration exposes e as the search_docs tool. Results carry the
// source path, the passage and its similarity score.
func CreateDocsSearchFunctionDeclaration(e *agent.Embedder) *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        "search_docs",
		Description: "Finds passages in the local documents folder that match a question. Call it before answering anything about internal policies, manuals or notes.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to look for, phrased as a question or keywords",
				},
			},
			"required": []string{"query"},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (any, error) {
			query, ok := args["query"].(string)
			if !ok || query == "" {
				return nil, errors.New("search_docs: query argument is required")
			}

			hits, err := e.Search(ctx, query, docsTopK)
			if err != nil {
				return nil, fmt.Errorf("search_docs: %w", err)
			}

			results := make([]map[string]any, 0, len(hits))
			for _, hit := range hits {
				results = append(results, map[string]any{
					"filename": hit.Source,
					"content":  hit.Text,
					"score":    math.Round(hit.Score*1000) / 1000,
				})
			}

			return map[string]any{"results": results}, nil
		},
	}
}
