package model

// ToolFunction describes a callable tool to the model.
type ToolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// Tool is the schema entry sent in the request "tools" array.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}
