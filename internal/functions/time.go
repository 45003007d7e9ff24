package functions

import (
	"context"
	"fmt"
	"time"

	"github.com/m2tx/toolchat/internal/agent"
)

// CreateTimeFunctionDeclaration reports the current time. now is injectable for tests.
func CreateTimeFunctionDeclaration(now func() time.Time) *agent.FunctionDeclaration {
	if now == nil {
		now = time.Now
	}
	return &agent.FunctionDeclaration{
		Name:        "get_time",
		Description: "Returns the current date and time, optionally in a given IANA time zone.",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA time zone name, e.g. Europe/Lisbon. Defaults to the local zone.",
				},
			},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (any, error) {
			t := now()
			if tz, _ := args["timezone"].(string); tz != "" {
				loc, err := time.LoadLocation(tz)
				if err != nil {
					return nil, fmt.Errorf("get_time: unknown timezone %q", tz)
				}
				t = t.In(loc)
			}

			return map[string]any{
				"time":     t.Format(time.RFC3339),
				"timezone": t.Location().String(),
				"weekday":  t.Weekday().String(),
			}, nil
		},
	}
}
