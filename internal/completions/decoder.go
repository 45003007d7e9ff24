package completions

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/m2tx/toolchat/internal/model"
)

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"

	// maxToolCallIndex bounds the accumulator list a single delta can grow.
	maxToolCallIndex = 1024
)

// Stats is observational accounting for one streamed response.
type Stats struct {
	Tokens          int
	Elapsed         time.Duration
	TokensPerSecond float64
}

type toolCallAcc struct {
	id        strings.Builder
	name      strings.Builder
	arguments strings.Builder
}

type functionCallAcc struct {
	name      strings.Builder
	arguments strings.Builder
}

// Accumulator rebuilds one assistant message from the raw lines of an event stream.
// It is not safe for concurrent use; create one per attempt.
type Accumulator struct {
	// OnToken, when set, receives every content fragment as it arrives.
	OnToken func(string)

	content   strings.Builder
	toolCalls []*toolCallAcc
	function  functionCallAcc

	now     func() time.Time
	started time.Time
	tokens  int
	done    bool
}

func NewAccumulator(onToken func(string)) *Accumulator {
	return &Accumulator{OnToken: onToken, now: time.Now}
}

// AddLine consumes one raw line and reports whether the end-of-stream sentinel was seen.
// Blank lines, non-data lines and undecodable payloads are ignored.
func (a *Accumulator) AddLine(line string) bool {
	if a.done {
		return true
	}

	line = strings.TrimRight(line, "\r\n")
	payload, ok := strings.CutPrefix(line, dataPrefix)
	if !ok {
		return false
	}
	payload = strings.TrimSpace(payload)
	if payload == doneSentinel {
		a.done = true
		return true
	}

	// encoding/json would turn invalid bytes into U+FFFD; they are dropped instead.
	payload = strings.ToValidUTF8(payload, "")

	var chunk ChatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return false
	}
	if len(chunk.Choices) == 0 {
		return false
	}
	a.addDelta(chunk.Choices[0].Delta)

	return false
}

func (a *Accumulator) addDelta(delta ChunkDelta) {
	if delta.Content != nil {
		if a.started.IsZero() {
			a.started = a.now()
		}
		a.content.WriteString(*delta.Content)
		a.tokens++
		if a.OnToken != nil {
			a.OnToken(*delta.Content)
		}
	}

	for _, tc := range delta.ToolCalls {
		if tc.Index < 0 || tc.Index > maxToolCallIndex {
			continue
		}
		for len(a.toolCalls) <= tc.Index {
			a.toolCalls = append(a.toolCalls, &toolCallAcc{})
		}
		acc := a.toolCalls[tc.Index]
		acc.id.WriteString(tc.ID)
		if tc.Function != nil {
			acc.name.WriteString(tc.Function.Name)
			acc.arguments.WriteString(tc.Function.Arguments)
		}
	}

	if delta.FunctionCall != nil {
		a.function.name.WriteString(delta.FunctionCall.Name)
		a.function.arguments.WriteString(delta.FunctionCall.Arguments)
	}
}

// Message finalizes the accumulated state into an assistant message. Tool calls take
// precedence over the legacy function call; a message never carries both.
func (a *Accumulator) Message() model.Message {
	content := strings.TrimSpace(strings.ToValidUTF8(a.content.String(), ""))
	msg := model.AssistantMessage(content)

	for _, acc := range a.toolCalls {
		name := acc.name.String()
		if name == "" {
			continue
		}
		var id *string
		if s := acc.id.String(); s != "" {
			id = model.Text(s)
		}
		msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
			ID:   id,
			Type: "function",
			Function: model.FunctionCall{
				Name:      name,
				Arguments: acc.arguments.String(),
			},
		})
	}

	if len(msg.ToolCalls) == 0 && a.function.name.Len() > 0 {
		msg.FunctionCall = &model.FunctionCall{
			Name:      a.function.name.String(),
			Arguments: a.function.arguments.String(),
		}
	}

	return msg
}

func (a *Accumulator) Stats() Stats {
	s := Stats{Tokens: a.tokens}
	if a.started.IsZero() {
		return s
	}
	s.Elapsed = a.now().Sub(a.started)
	if secs := s.Elapsed.Seconds(); secs > 0 {
		s.TokensPerSecond = float64(a.tokens) / secs
	}
	return s
}

// Decode reads an event stream until the sentinel or EOF and returns the rebuilt message.
// A read failure is returned as an error so the whole attempt can be retried.
func Decode(ctx context.Context, r io.Reader, onToken func(string)) (model.Message, Stats, error) {
	acc := NewAccumulator(onToken)
	br := bufio.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return model.Message{}, acc.Stats(), err
		}

		line, err := br.ReadString('\n')
		if line != "" && acc.AddLine(line) {
			break
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Message{}, acc.Stats(), fmt.Errorf("completions: read stream: %w", err)
		}
	}

	return acc.Message(), acc.Stats(), nil
}
