package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func noop(context.Context, map[string]any) (any, error) { return nil, nil }

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		decls   []*FunctionDeclaration
		wantErr error
	}{
		{name: "nil declaration", decls: []*FunctionDeclaration{nil}, wantErr: ErrNilDeclaration},
		{name: "empty name", decls: []*FunctionDeclaration{{FunctionCall: noop}}, wantErr: ErrEmptyName},
		{name: "missing implementation", decls: []*FunctionDeclaration{{Name: "x"}}, wantErr: ErrNilFunctionCall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.decls...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(
		&FunctionDeclaration{Name: "x", FunctionCall: noop},
		&FunctionDeclaration{Name: "x", FunctionCall: noop},
	)
	require.EqualError(t, err, "function x already registered")
}

func TestRegistry_LookupAndOrder(t *testing.T) {
	r, err := NewRegistry(
		&FunctionDeclaration{Name: "get_weather", FunctionCall: noop},
		&FunctionDeclaration{Name: "get_time", FunctionCall: noop},
	)
	require.NoError(t, err)

	require.Equal(t, 2, r.Len())
	require.Equal(t, []string{"get_weather", "get_time"}, r.Names())

	fd, ok := r.Lookup("get_time")
	require.True(t, ok)
	require.Equal(t, "get_time", fd.Name)

	_, ok = r.Lookup("nope")
	require.False(t, ok)
}

func TestRegistry_Schemas(t *testing.T) {
	params := map[string]any{
		"type":       "object",
		"properties": map[string]any{"city": map[string]any{"type": "string"}},
		"required":   []string{"city"},
	}
	r, err := NewRegistry(
		&FunctionDeclaration{Name: "get_weather", Description: "Weather lookup", ParametersSchema: params, FunctionCall: noop},
		&FunctionDeclaration{Name: "get_time", FunctionCall: noop},
	)
	require.NoError(t, err)

	tools := r.Schemas()
	require.Len(t, tools, 2)

	require.Equal(t, "function", tools[0].Type)
	require.Equal(t, "get_weather", tools[0].Function.Name)
	require.Equal(t, "Weather lookup", tools[0].Function.Description)
	require.Equal(t, params, tools[0].Function.Parameters)

	require.Equal(t, map[string]any{"type": "object", "properties": map[string]any{}}, tools[1].Function.Parameters)
}

func TestRegistry_EmptySchemas(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	require.Empty(t, r.Schemas())
}

func TestRegistry_Suggest(t *testing.T) {
	r, err := NewRegistry(
		&FunctionDeclaration{Name: "get_weather", FunctionCall: noop},
		&FunctionDeclaration{Name: "search_docs", FunctionCall: noop},
	)
	require.NoError(t, err)

	got, ok := r.Suggest("weather")
	require.True(t, ok)
	require.Equal(t, "get_weather", got)

	_, ok = r.Suggest("zzz")
	require.False(t, ok)

	_, ok = r.Suggest("")
	require.False(t, ok)
}
