package functions

import (
	"context"
	"errors"
	"strings"

	"github.com/m2tx/toolchat/internal/agent"
)

type weatherReport struct {
	Location    string `json:"location"`
	Temperature string `json:"temperature"`
	Condition   string `json:"condition"`
}

func CreateWeatherFunctionDeclaration() *agent.FunctionDeclaration {
	return &agent.FunctionDeclaration{
		Name:        "get_weather",
		Description: "Reports the current weather for a city",
		ParametersSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"location": map[string]any{
					"type":        "string",
					"description": "The city, e.g. Lisbon, PT",
				},
			},
			"required": []string{"location"},
		},
		FunctionCall: func(ctx context.Context, args map[string]any) (any, error) {
			location, _ := args["location"].(string)
			location = strings.TrimSpace(location)
			if location == "" {
				return nil, errors.New("get_weather: location argument is required")
			}

			// canned report; there is no weather provider behind this tool
			return weatherReport{
				Location:    location,
				Temperature: "22°C",
				Condition:   "Sunny",
			}, nil
		},
	}
}
