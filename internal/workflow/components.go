package workflow

// BuiltinComponentSchemas returns the parameter contracts of the components
// shipped with the studio, keyed by component name. The maps follow the
// JSON-schema subset the editor understands: object type, properties,
// required list, additionalProperties flag and basic string/number bounds.
func BuiltinComponentSchemas() map[string]map[string]any {
	return map[string]map[string]any{
		"datapizza.source.dataset": {
			"type": "object",
			"properties": map[string]any{
				"format": map[string]any{"type": "string", "minLength": 1},
				"path":   map[string]any{"type": "string"},
				"name":   map[string]any{"type": "string"},
			},
			"required":             []any{"format"},
			"additionalProperties": false,
		},
		"datapizza.source.http": {
			"type": "object",
			"properties": map[string]any{
				"url":     map[string]any{"type": "string", "minLength": 1},
				"method":  map[string]any{"type": "string"},
				"headers": map[string]any{"type": "object"},
			},
			"required":             []any{"url"},
			"additionalProperties": false,
		},
		"datapizza.task.prompt": {
			"type": "object",
			"properties": map[string]any{
				"template":    map[string]any{"type": "string", "minLength": 1},
				"model":       map[string]any{"type": "string"},
				"temperature": map[string]any{"type": "number", "minimum": 0},
				"maxTokens":   map[string]any{"type": "number", "minimum": 1},
			},
			"required":             []any{"template"},
			"additionalProperties": false,
		},
		"datapizza.task.embedder": {
			"type": "object",
			"properties": map[string]any{
				"model":     map[string]any{"type": "string", "minLength": 1},
				"batchSize": map[string]any{"type": "number", "minimum": 1},
			},
			"required":             []any{"model"},
			"additionalProperties": false,
		},
		"datapizza.task.chunker": {
			"type": "object",
			"properties": map[string]any{
				"chunkSize": map[string]any{"type": "number", "minimum": 1},
				"overlap":   map[string]any{"type": "number", "minimum": 0},
				"separator": map[string]any{"type": "string", "maxLength": 16},
			},
			"required":             []any{"chunkSize"},
			"additionalProperties": false,
		},
		"datapizza.output.json": {
			"type": "object",
			"properties": map[string]any{
				"destination": map[string]any{"type": "string", "minLength": 1},
				"pretty":      map[string]any{"type": "boolean"},
			},
			"required":             []any{"destination"},
			"additionalProperties": false,
		},
		"datapizza.output.vectorstore": {
			"type": "object",
			"properties": map[string]any{
				"collection": map[string]any{"type": "string", "minLength": 1},
				"upsert":     map[string]any{"type": "boolean"},
			},
			"required":             []any{"collection"},
			"additionalProperties": false,
		},
	}
}

// DocumentSchema describes the portable workflow document itself, exposed by
// the backend so editors can introspect the format they are expected to send.
func DocumentSchema() map[string]any {
	connector := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"nodeId": map[string]any{"type": "string", "minLength": 1},
			"portId": map[string]any{"type": "string"},
		},
		"required": []any{"nodeId"},
	}
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   "WorkflowDefinition",
		"type":    "object",
		"properties": map[string]any{
			"version": map[string]any{"type": "string", "const": CurrentVersion},
			"metadata": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string", "minLength": 1},
					"description": map[string]any{"type": "string"},
					"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"author": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string", "minLength": 1},
							"email": map[string]any{"type": "string"},
						},
						"required": []any{"name"},
					},
					"category":   map[string]any{"type": "string"},
					"externalId": map[string]any{"type": "string"},
					"createdAt":  map[string]any{"type": "string"},
					"updatedAt":  map[string]any{"type": "string"},
				},
				"required": []any{"name"},
			},
			"nodes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":    map[string]any{"type": "string", "minLength": 1},
						"kind":  map[string]any{"type": "string", "enum": []any{"input", "task", "output"}},
						"label": map[string]any{"type": "string", "minLength": 1},
						"position": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"x": map[string]any{"type": "number"},
								"y": map[string]any{"type": "number"},
							},
							"required": []any{"x", "y"},
						},
						"data": map[string]any{"type": "object"},
					},
					"required": []any{"id", "kind", "label", "position"},
				},
			},
			"edges": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":       map[string]any{"type": "string", "minLength": 1},
						"source":   connector,
						"target":   connector,
						"label":    map[string]any{"type": "string"},
						"metadata": map[string]any{"type": "object"},
					},
					"required": []any{"id", "source", "target"},
				},
			},
			"extensions": map[string]any{"type": "object"},
		},
		"required": []any{"version", "metadata", "nodes", "edges"},
	}
}
