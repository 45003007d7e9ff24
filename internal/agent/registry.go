package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"

	"github.com/m2tx/toolchat/internal/model"
)

var (
	ErrNilDeclaration  = errors.New("function declaration cannot be nil")
	ErrEmptyName       = errors.New("function name cannot be empty")
	ErrNilFunctionCall = errors.New("function call implementation cannot be nil")
)

// FunctionCallFn is the capability behind a tool. The result must be JSON-serializable.
type FunctionCallFn func(ctx context.Context, args map[string]any) (any, error)

// FunctionDeclaration is a registered tool: its name, the JSON schema the model uses to
// call it, and the function that runs it.
type FunctionDeclaration struct {
	Name             string
	Description      string
	ParametersSchema any
	FunctionCall     FunctionCallFn
}

// Registry maps tool names to declarations. It is built once and never modified, so
// it can be shared by concurrent turns without locking.
type Registry struct {
	order        []string
	functionsMap map[string]*FunctionDeclaration
}

func NewRegistry(decls ...*FunctionDeclaration) (*Registry, error) {
	r := &Registry{functionsMap: make(map[string]*FunctionDeclaration, len(decls))}
	for _, fd := range decls {
		if err := r.add(fd); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) add(fd *FunctionDeclaration) error {
	if fd == nil {
		return ErrNilDeclaration
	}
	if fd.Name == "" {
		return ErrEmptyName
	}
	if fd.FunctionCall == nil {
		return fmt.Errorf("%s: %w", fd.Name, ErrNilFunctionCall)
	}
	if _, exists := r.functionsMap[fd.Name]; exists {
		return fmt.Errorf("function %s already registered", fd.Name)
	}

	r.functionsMap[fd.Name] = fd
	r.order = append(r.order, fd.Name)
	return nil
}

func (r *Registry) Lookup(name string) (*FunctionDeclaration, bool) {
	fd, ok := r.functionsMap[name]
	return fd, ok
}

// Names returns tool names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Schemas returns the "tools" entries sent with every request.
func (r *Registry) Schemas() []model.Tool {
	tools := make([]model.Tool, 0, len(r.order))
	for _, name := range r.order {
		fd := r.functionsMap[name]
		params := fd.ParametersSchema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		tools = append(tools, model.Tool{
			Type: "function",
			Function: model.ToolFunction{
				Name:        fd.Name,
				Description: fd.Description,
				Parameters:  params,
			},
		})
	}
	return tools
}

// Suggest returns the registered name closest to an unknown one, if any is close enough.
func (r *Registry) Suggest(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	matches := fuzzy.Find(name, r.order)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
