package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m2tx/toolchat/internal/agent"
)

type recordingSender struct {
	prompts []string
	reply   func(prompt string) (*agent.TurnResult, error)
}

func (s *recordingSender) Send(_ context.Context, prompt string) (*agent.TurnResult, error) {
	s.prompts = append(s.prompts, prompt)
	if s.reply != nil {
		return s.reply(prompt)
	}
	return &agent.TurnResult{Text: "echo: " + prompt, Status: agent.StatusCompleted, Steps: 1}, nil
}

func runREPL(t *testing.T, input string, sender Sender, opts ...PrinterOption) string {
	t.Helper()
	var out bytes.Buffer
	repl := NewREPL(sender, strings.NewReader(input), NewPrinter(&out, opts...))
	require.NoError(t, repl.Run(context.Background()))
	return out.String()
}

func TestREPL_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", "  Bye  "} {
		t.Run(word, func(t *testing.T) {
			sender := &recordingSender{}
			out := runREPL(t, word+"\nnever sent\n", sender)

			require.Contains(t, out, "Goodbye!")
			require.Empty(t, sender.prompts)
		})
	}
}

func TestREPL_EOF(t *testing.T) {
	sender := &recordingSender{}
	out := runREPL(t, "hello\n", sender)

	require.Equal(t, []string{"hello"}, sender.prompts)
	require.Contains(t, out, "Assistant: echo: hello")
	require.True(t, strings.HasSuffix(out, "Bye.\n"))
}

func TestREPL_BlankLinesIgnored(t *testing.T) {
	sender := &recordingSender{}
	runREPL(t, "\n   \n\t\nfirst\n\nsecond\nexit\n", sender)

	require.Equal(t, []string{"first", "second"}, sender.prompts)
}

func TestREPL_ErrorsArePrinted(t *testing.T) {
	sender := &recordingSender{reply: func(string) (*agent.TurnResult, error) {
		return nil, errors.New("registry exploded")
	}}
	out := runREPL(t, "hi\nexit\n", sender)

	require.Contains(t, out, "Error: registry exploded")
	require.Contains(t, out, "Goodbye!")
}

func TestREPL_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sender := &recordingSender{reply: func(string) (*agent.TurnResult, error) {
		cancel()
		return nil, context.Canceled
	}}

	var out bytes.Buffer
	repl := NewREPL(sender, strings.NewReader("hi\nagain\n"), NewPrinter(&out))
	require.ErrorIs(t, repl.Run(ctx), context.Canceled)
	require.Equal(t, []string{"hi"}, sender.prompts)
}

func TestPrinter_StreamedAnswerIsNotRepeated(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)
	hooks := p.Hooks()

	hooks.OnStep(1)
	hooks.OnToken("Hel")
	hooks.OnToken("lo")
	p.Result(&agent.TurnResult{Text: "Hello", Status: agent.StatusCompleted, Steps: 1})

	require.Equal(t, "Assistant: Hello\n", out.String())
}

func TestPrinter_UnstreamedAnswerIsPrinted(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.Result(&agent.TurnResult{Text: "[Error: connection refused]", Status: agent.StatusCompleted})
	require.Equal(t, "Assistant: [Error: connection refused]\n", out.String())
}

func TestPrinter_EmptyAnswer(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.Result(&agent.TurnResult{Status: agent.StatusCompleted})
	require.Contains(t, out.String(), "(no answer)")
}

func TestPrinter_ToolCallsAndCutOff(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)
	hooks := p.Hooks()

	hooks.OnStep(1)
	hooks.OnToken("Let me check.")
	hooks.OnToolCall("get_weather", map[string]any{"location": "Lisbon"})
	hooks.OnToolResult("get_weather", `{"condition":"Sunny"}`)
	hooks.OnStep(2)
	p.Result(&agent.TurnResult{Status: agent.StatusCutOff, Steps: 2})

	got := out.String()
	require.Contains(t, got, "Assistant: Let me check.\n")
	require.Contains(t, got, "→ get_weather")
	require.Contains(t, got, `"location": "Lisbon"`)
	require.Contains(t, got, `get_weather ← {"condition":"Sunny"}`)
	require.Contains(t, got, "[step 2]")
	require.Contains(t, got, "Stopped after 2 steps")
}

func TestPrinter_Markdown(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, WithMarkdown(true), WithWidth(60))

	p.Token("ignored")
	p.Result(&agent.TurnResult{Text: "# Title\n\nSome **bold** text.", Status: agent.StatusCompleted})

	got := out.String()
	require.NotContains(t, got, "ignored")
	require.Contains(t, strings.ToLower(got), "title")
	require.Contains(t, got, "bold")
}

func TestPrinter_Retry(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.Retry(0, 1500*time.Millisecond, errors.New("connection reset"))
	require.Equal(t, "Request failed (attempt 1): connection reset. Retrying in 1.5s...\n", out.String())
}

func TestTruncate(t *testing.T) {
	require.Equal(t, "short", truncate("short", 10))
	require.Equal(t, "abc…", truncate("abcdef", 3))
	// a cut through a multi-byte rune drops the partial bytes
	require.Equal(t, "a…", truncate("aé", 2))
}
