package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"

	"github.com/m2tx/toolchat/internal/agent"
)

const (
	defaultWidth   = 100
	maxResultChars = 500
)

// Printer writes turn progress to the console. It is shared by every turn, including
// the ones started over HTTP, so all writes are serialized.
type Printer struct {
	mu       sync.Mutex
	w        io.Writer
	styles   styles
	markdown bool
	width    int

	// streamed is set once the current step has printed a token.
	streamed bool
}

type PrinterOption func(*Printer)

// WithMarkdown renders final answers as terminal markdown instead of streaming tokens.
func WithMarkdown(enabled bool) PrinterOption {
	return func(p *Printer) { p.markdown = enabled }
}

func WithWidth(width int) PrinterOption {
	return func(p *Printer) {
		if width > 0 {
			p.width = width
		}
	}
}

func NewPrinter(w io.Writer, opts ...PrinterOption) *Printer {
	p := &Printer{w: w, styles: newStyles(w), width: defaultWidth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Hooks returns the agent hooks that drive this printer.
func (p *Printer) Hooks() agent.Hooks {
	return agent.Hooks{
		OnToken:      p.Token,
		OnToolCall:   p.ToolCall,
		OnToolResult: p.ToolResult,
		OnStep:       p.Step,
	}
}

func (p *Printer) Token(token string) {
	if p.markdown {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.streamed {
		fmt.Fprint(p.w, p.styles.assistant.Render("Assistant:")+" ")
		p.streamed = true
	}
	fmt.Fprint(p.w, token)
}

func (p *Printer) Step(step int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endStream()
	if step > 1 {
		fmt.Fprintln(p.w, p.styles.dim.Render(fmt.Sprintf("[step %d]", step)))
	}
}

func (p *Printer) ToolCall(name string, args map[string]any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endStream()
	fmt.Fprintln(p.w, "  "+p.styles.tool.Render("→ "+name))
	if len(args) == 0 {
		return
	}
	b, err := json.MarshalIndent(args, "    ", "  ")
	if err != nil {
		return
	}
	fmt.Fprintln(p.w, "    "+string(b))
}

func (p *Printer) ToolResult(name string, result string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, "    "+p.styles.dim.Render(name+" ← "+truncate(result, maxResultChars)))
}

// Retry reports a failed model call that is about to be retried.
func (p *Printer) Retry(attempt int, wait time.Duration, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endStream()
	msg := fmt.Sprintf("Request failed (attempt %d): %v. Retrying in %s...", attempt+1, err, wait)
	fmt.Fprintln(p.w, p.styles.warning.Render(msg))
}

// Result prints whatever the turn produced that has not been shown yet.
func (p *Printer) Result(res *agent.TurnResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	alreadyShown := p.streamed
	p.endStream()

	switch {
	case p.markdown && res.Text != "":
		fmt.Fprintln(p.w, p.styles.assistant.Render("Assistant:"))
		fmt.Fprint(p.w, string(markdown.Render(res.Text, p.width, 2)))
	case !alreadyShown:
		text := res.Text
		if text == "" {
			text = "(no answer)"
		}
		fmt.Fprintln(p.w, p.styles.assistant.Render("Assistant:")+" "+text)
	}

	if res.Status == agent.StatusCutOff {
		msg := fmt.Sprintf("Stopped after %d steps without a final answer.", res.Steps)
		fmt.Fprintln(p.w, p.styles.warning.Render(msg))
	}
}

func (p *Printer) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endStream()
	fmt.Fprintln(p.w, p.styles.danger.Render("Error: "+err.Error()))
}

func (p *Printer) Println(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.w, s)
}

// Prompt writes the input prompt without a trailing newline.
func (p *Printer) Prompt() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprint(p.w, p.styles.prompt.Render("You:")+" ")
}

// endStream terminates a streamed line. Callers hold mu.
func (p *Printer) endStream() {
	if p.streamed {
		fmt.Fprintln(p.w)
		p.streamed = false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := strings.ToValidUTF8(s[:n], "")
	return cut + "…"
}
