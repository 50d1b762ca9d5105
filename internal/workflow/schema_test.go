package workflow

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============ ValidateComponentParameters ============

func TestSchemaRegistry_MissingRequiredField(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.source.dataset", map[string]any{})

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, `Missing required field "format".`, result.Errors[0])
}

func TestSchemaRegistry_ValidParameters(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.source.dataset", map[string]any{"format": "csv"})

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
}

func TestSchemaRegistry_WrongType(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.source.dataset", map[string]any{"format": 12})

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, `Field "format" must be of type string.`, result.Errors[0])
}

func TestSchemaRegistry_ExtraFieldNotSupported(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.source.dataset", map[string]any{
		"format":  "csv",
		"unknown": true,
	})

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, `Field "unknown" is not supported by the component.`, result.Errors[0])
}

func TestSchemaRegistry_StringTooShort(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.task.prompt", map[string]any{"template": ""})

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, `Field "template" must be at least 1 characters long.`, result.Errors[0])
}

func TestSchemaRegistry_NumberBelowMinimum(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.task.prompt", map[string]any{
		"template":    "Summarize {input}",
		"temperature": -1,
	})

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, `Field "temperature" must be greater than or equal to 0.`, result.Errors[0])
}

func TestSchemaRegistry_UnregisteredComponentIsValid(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("acme.custom.component", map[string]any{"anything": true})

	assert.True(t, result.Valid)
}

func TestSchemaRegistry_NilParametersCheckedAsEmpty(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	result := registry.ValidateComponentParameters("datapizza.source.dataset", nil)

	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "format")
}

// ============ Registry behaviour ============

func TestSchemaRegistry_IndependentRegistriesDoNotShareState(t *testing.T) {
	first := NewSchemaRegistry(map[string]map[string]any{
		"only.here": {
			"type":       "object",
			"properties": map[string]any{"a": map[string]any{"type": "string"}},
			"required":   []any{"a"},
		},
	}, zerolog.Nop())
	second := NewSchemaRegistry(map[string]map[string]any{}, zerolog.Nop())

	assert.False(t, first.ValidateComponentParameters("only.here", map[string]any{}).Valid)
	assert.True(t, second.ValidateComponentParameters("only.here", map[string]any{}).Valid)
}

func TestSchemaRegistry_ConcurrentReads(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			params := map[string]any{"format": fmt.Sprintf("fmt-%d", n)}
			result := registry.ValidateComponentParameters("datapizza.source.dataset", params)
			assert.True(t, result.Valid)
		}(i)
	}
	wg.Wait()
}

func TestSchemaRegistry_SchemaLookup(t *testing.T) {
	registry := NewSchemaRegistry(BuiltinComponentSchemas(), zerolog.Nop())

	schema, ok := registry.Schema("datapizza.source.dataset")
	require.True(t, ok)
	assert.Equal(t, "object", schema["type"])

	_, ok = registry.Schema("missing")
	assert.False(t, ok)
}
