package model

import "strings"

// Role identifies the author of a message in the conversation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// FunctionCall is the legacy single-function invocation shape, also reused as the
// function body of a ToolCall.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolCall is one invocation requested by the model. ID is nil when the server never sent one.
type ToolCall struct {
	ID       *string      `json:"id"`
	Type     string       `json:"type"`
	Function FunctionCall `json:"function"`
}

// Message is a single entry of the conversation transcript, sent verbatim on every request.
// A nil Content is encoded as JSON null.
type Message struct {
	Role         Role          `json:"role"`
	Content      *string       `json:"content"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	ToolCallID   *string       `json:"tool_call_id,omitempty"`
	Name         string        `json:"name,omitempty"`
}

// Text returns a pointer to s, for optional string fields.
func Text(s string) *string {
	return &s
}

// Text returns the message content, or "" when absent.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// HasInvocations reports whether the message requests at least one tool execution,
// in either the tool_calls or the legacy function_call form.
func (m Message) HasInvocations() bool {
	return len(m.ToolCalls) > 0 || m.FunctionCall != nil
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: Text(content)}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: Text(strings.TrimSpace(content))}
}

// AssistantMessage builds a plain-text assistant message. Empty content is stored as absent.
func AssistantMessage(content string) Message {
	if content == "" {
		return Message{Role: RoleAssistant}
	}
	return Message{Role: RoleAssistant, Content: Text(content)}
}

// ToolResultMessage answers a ToolCall; it carries the call id (possibly nil) and the tool name.
func ToolResultMessage(call ToolCall, content string) Message {
	return Message{
		Role:       RoleTool,
		Content:    Text(content),
		ToolCallID: call.ID,
		Name:       call.Function.Name,
	}
}

// FunctionResultMessage answers a legacy FunctionCall, which has no id.
func FunctionResultMessage(call FunctionCall, content string) Message {
	return Message{
		Role:    RoleTool,
		Content: Text(content),
		Name:    call.Name,
	}
}
