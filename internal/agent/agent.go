// Package agent runs conversation turns: it calls the model, executes the tools the model
// asks for, and loops until a plain answer arrives or the step bound is hit.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/m2tx/toolchat/internal/history"
	"github.com/m2tx/toolchat/internal/model"
)

const DefaultMaxSteps = 20

// ErrEmptyPrompt is returned by Send for blank input.
var ErrEmptyPrompt = errors.New("agent: prompt is empty")

// Completer produces one assistant message from the full transcript. Implementations
// never fail; transport problems come back as an error-text message.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message, tools []model.Tool, onToken func(string)) model.Message
}

// Status tells a natural end of turn apart from the step bound cutting it off.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusCutOff    Status = "cut_off"
)

// TurnResult is the outcome of one user input.
type TurnResult struct {
	ID     string
	Text   string
	Status Status
	Steps  int
}

// Hooks observe a turn; they are set once at start-up and must not block for long.
type Hooks struct {
	OnToken      func(token string)
	OnToolCall   func(name string, args map[string]any)
	OnToolResult func(name string, result string)
	OnStep       func(step int)
}

type Agent struct {
	completer Completer
	registry  *Registry
	history   *history.History
	maxSteps  int
	logger    *slog.Logger
	hooks     Hooks

	// turns from the CLI and the HTTP server share the history; one runs at a time.
	turnMu chan struct{}
}

type Option func(*Agent)

func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

func WithHooks(h Hooks) Option {
	return func(a *Agent) { a.hooks = h }
}

func New(completer Completer, registry *Registry, hist *history.History, opts ...Option) *Agent {
	if registry == nil {
		registry, _ = NewRegistry()
	}
	if hist == nil {
		hist = history.New()
	}
	a := &Agent{
		completer: completer,
		registry:  registry,
		history:   hist,
		maxSteps:  DefaultMaxSteps,
		logger:    slog.Default(),
		turnMu:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) History() *history.History {
	return a.history
}

func (a *Agent) Registry() *Registry {
	return a.registry
}

// Send appends prompt as a user message and runs one full turn. Concurrent calls are
// serialized; a caller whose context ends while waiting gets ctx.Err(). Once the turn has
// started it runs to completion or to the step bound even if ctx is cancelled.
func (a *Agent) Send(ctx context.Context, prompt string) (*TurnResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	select {
	case a.turnMu <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-a.turnMu }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.history.Append(model.UserMessage(prompt))
	return a.runTurn(context.WithoutCancel(ctx)), nil
}

func (a *Agent) runTurn(ctx context.Context) *TurnResult {
	result := &TurnResult{ID: uuid.NewString(), Status: StatusCutOff}
	logger := a.logger.With("turn", result.ID)
	tools := a.registry.Schemas()

	for step := 1; step <= a.maxSteps; step++ {
		result.Steps = step
		if a.hooks.OnStep != nil {
			a.hooks.OnStep(step)
		}

		msg := a.completer.Complete(ctx, a.history.Snapshot(), tools, a.hooks.OnToken)
		a.history.Append(msg)
		result.Text = msg.Text()

		if !msg.HasInvocations() {
			result.Status = StatusCompleted
			logger.Debug("agent: turn completed", "steps", step)
			return result
		}

		logger.Debug("agent: executing tool calls", "step", step, "tool_calls", len(msg.ToolCalls))
		a.history.Append(a.executeInvocations(ctx, logger, msg)...)
	}

	logger.Warn("agent: turn cut off at step bound", "max_steps", a.maxSteps)
	return result
}

// executeInvocations runs every invocation of msg in order and returns the result messages.
func (a *Agent) executeInvocations(ctx context.Context, logger *slog.Logger, msg model.Message) []model.Message {
	if len(msg.ToolCalls) > 0 {
		results := make([]model.Message, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			content := a.execute(ctx, logger, tc.Function.Name, tc.Function.Arguments)
			results = append(results, model.ToolResultMessage(tc, content))
		}
		return results
	}

	fc := *msg.FunctionCall
	content := a.execute(ctx, logger, fc.Name, fc.Arguments)
	return []model.Message{model.FunctionResultMessage(fc, content)}
}

// execute runs one tool and returns its JSON-encoded result. It never fails: bad arguments
// become an empty set, and unknown tools, tool errors and panics become {"error": ...}.
func (a *Agent) execute(ctx context.Context, logger *slog.Logger, name, rawArgs string) string {
	args := ParseArguments(rawArgs)
	if a.hooks.OnToolCall != nil {
		a.hooks.OnToolCall(name, args)
	}

	var result any
	fd, ok := a.registry.Lookup(name)
	if !ok {
		if suggestion, found := a.registry.Suggest(name); found {
			logger.Warn("agent: unknown tool", "tool", name, "closest", suggestion)
		} else {
			logger.Warn("agent: unknown tool", "tool", name)
		}
		result = errorResult("Unknown tool")
	} else {
		result = a.call(ctx, logger, fd, args)
	}

	content := encodeResult(result)
	if a.hooks.OnToolResult != nil {
		a.hooks.OnToolResult(name, content)
	}
	return content
}

func (a *Agent) call(ctx context.Context, logger *slog.Logger, fd *FunctionDeclaration, args map[string]any) (result any) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("agent: tool panicked", "tool", fd.Name, "panic", r)
			result = errorResult(fmt.Sprintf("tool %s panicked: %v", fd.Name, r))
		}
	}()

	out, err := fd.FunctionCall(ctx, args)
	if err != nil {
		logger.Warn("agent: tool failed", "tool", fd.Name, "err", err)
		return errorResult(err.Error())
	}
	return out
}

// ParseArguments decodes a tool call's argument string into an object. Anything that
// is not a JSON object yields an empty, non-nil map.
func ParseArguments(raw string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}

func errorResult(msg string) map[string]any {
	return map[string]any{"error": msg}
}

func encodeResult(result any) string {
	b, err := json.Marshal(result)
	if err != nil {
		b, _ = json.Marshal(errorResult(fmt.Sprintf("unserializable tool result: %v", err)))
	}
	return string(b)
}
