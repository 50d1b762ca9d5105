package workflow

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// ComponentValidation is the outcome of checking a node's parameters against
// its component schema. Errors holds one human readable sentence per
// violation.
type ComponentValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// SchemaRegistry maps component names to their parameter schemas and caches
// the compiled validators. The registry is an explicitly owned object rather
// than package state so independent sessions (and tests) do not share caches.
//
// Compiled validators are written once on first use and read-only afterwards;
// the RWMutex makes concurrent reads safe.
type SchemaRegistry struct {
	logger   zerolog.Logger
	mu       sync.RWMutex
	raw      map[string]map[string]any
	compiled map[string]*gojsonschema.Schema
}

func NewSchemaRegistry(schemas map[string]map[string]any, logger zerolog.Logger) *SchemaRegistry {
	raw := make(map[string]map[string]any, len(schemas))
	for name, schema := range schemas {
		raw[name] = cloneAnyMap(schema)
	}
	return &SchemaRegistry{
		logger:   logger,
		raw:      raw,
		compiled: make(map[string]*gojsonschema.Schema, len(schemas)),
	}
}

// Schema returns the raw schema registered for a component name.
func (slf *SchemaRegistry) Schema(component string) (map[string]any, bool) {
	schema, ok := slf.raw[component]
	if !ok {
		return nil, false
	}
	return cloneAnyMap(schema), true
}

// ValidateComponentParameters checks a parameter payload against the schema
// registered for the component. Components without a schema trivially pass.
func (slf *SchemaRegistry) ValidateComponentParameters(component string, parameters map[string]any) ComponentValidation {
	compiled, ok := slf.compile(component)
	if !ok {
		return ComponentValidation{Valid: true}
	}
	if parameters == nil {
		parameters = map[string]any{}
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(parameters))
	if err != nil {
		// The payload itself could not be loaded; report it instead of failing.
		return ComponentValidation{
			Valid:  false,
			Errors: []string{fmt.Sprintf("Component parameters are invalid: %v.", err)},
		}
	}
	if result.Valid() {
		return ComponentValidation{Valid: true}
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		messages = append(messages, renderSchemaViolation(violation))
	}
	return ComponentValidation{Valid: false, Errors: messages}
}

func (slf *SchemaRegistry) compile(component string) (*gojsonschema.Schema, bool) {
	slf.mu.RLock()
	compiled, ok := slf.compiled[component]
	slf.mu.RUnlock()
	if ok {
		return compiled, true
	}

	raw, ok := slf.raw[component]
	if !ok {
		return nil, false
	}

	slf.mu.Lock()
	defer slf.mu.Unlock()
	if compiled, ok := slf.compiled[component]; ok {
		return compiled, true
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(raw))
	if err != nil {
		slf.logger.Error().Err(err).Str("component", component).Msg("Failed to compile component schema")
		return nil, false
	}
	slf.compiled[component] = compiled
	return compiled, true
}

// renderSchemaViolation turns a schema violation into exactly one sentence
// using a fixed rule table keyed by the violation kind.
func renderSchemaViolation(violation gojsonschema.ResultError) string {
	details := violation.Details()
	switch violation.Type() {
	case "required":
		return fmt.Sprintf("Missing required field %q.", violationFieldName(violation))
	case "invalid_type":
		return fmt.Sprintf("Field %q must be of type %v.", violationPath(violation), details["expected"])
	case "string_gte":
		return fmt.Sprintf("Field %q must be at least %v characters long.", violationPath(violation), details["min"])
	case "string_lte":
		return fmt.Sprintf("Field %q must be at most %v characters long.", violationPath(violation), details["max"])
	case "number_gte":
		return fmt.Sprintf("Field %q must be greater than or equal to %v.", violationPath(violation), details["min"])
	case "additional_property_not_allowed":
		return fmt.Sprintf("Field %q is not supported by the component.", violationFieldName(violation))
	default:
		return fmt.Sprintf("Component parameters are invalid: %s.", violation.Description())
	}
}

// violationPath prefers the structural path of the violation and falls back
// to a generic placeholder when the violation sits at the document root.
func violationPath(violation gojsonschema.ResultError) string {
	field := violation.Field()
	if field == "" || field == "(root)" {
		return "value"
	}
	return field
}

// violationFieldName resolves the offending field for violations that point
// at their parent object (missing required fields, extra properties).
func violationFieldName(violation gojsonschema.ResultError) string {
	if property, ok := violation.Details()["property"].(string); ok && property != "" {
		return property
	}
	return violationPath(violation)
}
