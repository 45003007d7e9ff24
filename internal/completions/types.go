// Package completions talks to an OpenAI-compatible streaming chat-completions endpoint
// and rebuilds one assistant message per request from the event stream.
package completions

import "github.com/m2tx/toolchat/internal/model"

// ChatRequest is the request body for the chat completions endpoint.
type ChatRequest struct {
	Model            string          `json:"model"`
	Messages         []model.Message `json:"messages"`
	Tools            []model.Tool    `json:"tools,omitempty"`
	ToolChoice       string          `json:"tool_choice,omitempty"`
	Stream           bool            `json:"stream"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
	MaxTokens        int             `json:"max_tokens"`
	PresencePenalty  float64         `json:"presence_penalty"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
}

// ChatChunk is one `data:` event of the streamed response.
type ChatChunk struct {
	Choices []ChunkChoice `json:"choices"`
}

type ChunkChoice struct {
	Delta ChunkDelta `json:"delta"`
}

// ChunkDelta carries the incremental fragments of a single chunk. Content is nil when the
// server sent no content field (or null), which is not the same as an empty fragment.
type ChunkDelta struct {
	Content      *string            `json:"content"`
	ToolCalls    []ToolCallDelta    `json:"tool_calls"`
	FunctionCall *FunctionCallDelta `json:"function_call"`
}

// ToolCallDelta is a fragment of the tool call at position Index.
type ToolCallDelta struct {
	Index    int                `json:"index"`
	ID       string             `json:"id"`
	Function *FunctionCallDelta `json:"function"`
}

type FunctionCallDelta struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
