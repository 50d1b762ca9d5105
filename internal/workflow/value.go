package workflow

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"mime"
	"net/url"
	"path/filepath"
	"reflect"
	"time"

	"github.com/rs/zerolog"
)

// ResourceReference is a tagged parameter value pointing at an external
// artifact (a dataset URI, an uploaded file) instead of an inline literal.
type ResourceReference struct {
	Type        string         `json:"type"`
	URI         string         `json:"uri"`
	Name        string         `json:"name,omitempty"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

const resourceReferenceType = "resource"

func (r ResourceReference) toMap() map[string]any {
	out := map[string]any{
		"type": resourceReferenceType,
		"uri":  r.URI,
	}
	if r.Name != "" {
		out["name"] = r.Name
	}
	if r.Description != "" {
		out["description"] = r.Description
	}
	if r.Metadata != nil {
		out["metadata"] = normalizeMap(reflect.ValueOf(r.Metadata))
	}
	return out
}

// NormalizeValue coerces an arbitrary value into the canonical JSON-safe
// parameter form: primitives, []any, map[string]any and resource reference
// maps. It is deterministic and total; unsupported values fall back to their
// string rendering rather than failing, and normalizing an already canonical
// value returns an equal value.
func NormalizeValue(value any) any {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case bool, string:
		return typed
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return typed
	case float32:
		return normalizeFloat(float64(typed))
	case float64:
		return normalizeFloat(typed)
	case json.Number:
		return normalizeJSONNumber(typed)
	case *big.Int:
		if typed == nil {
			return nil
		}
		return normalizeBigInt(typed)
	case big.Int:
		return normalizeBigInt(&typed)
	case *big.Float:
		if typed == nil {
			return nil
		}
		return normalizeBigFloat(typed)
	case big.Float:
		return normalizeBigFloat(&typed)
	case time.Time:
		return typed.Format(time.RFC3339)
	case *time.Time:
		if typed == nil {
			return nil
		}
		return typed.Format(time.RFC3339)
	case time.Duration:
		return typed.String()
	case url.URL:
		return typed.String()
	case *url.URL:
		if typed == nil {
			return nil
		}
		return typed.String()
	case ResourceReference:
		return typed.toMap()
	case *ResourceReference:
		if typed == nil {
			return nil
		}
		return typed.toMap()
	case []byte:
		return string(typed)
	case map[string]any:
		if ref, ok := asResourceReferenceMap(typed); ok {
			return ref
		}
		return normalizeMap(reflect.ValueOf(typed))
	case []any:
		return normalizeSlice(reflect.ValueOf(typed))
	case error:
		return typed.Error()
	}

	if info, ok := value.(fs.FileInfo); ok {
		return fileInfoToReference(info)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return NormalizeValue(rv.Elem().Interface())
	case reflect.Map:
		return normalizeMap(rv)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(rv)
	case reflect.Struct:
		return normalizeStruct(value)
	default:
		return fmt.Sprint(value)
	}
}

// NormalizeParameters normalizes a node parameter payload. Parameters must be
// a mapping by contract: sequences and scalar inputs are rejected with a
// logged warning and replaced by an empty mapping instead of failing.
func NormalizeParameters(logger zerolog.Logger, value any) map[string]any {
	if value == nil {
		return map[string]any{}
	}
	normalized := NormalizeValue(value)
	mapped, ok := normalized.(map[string]any)
	if !ok {
		logger.Warn().
			Str("inputType", fmt.Sprintf("%T", value)).
			Msg("Node parameters must be a mapping, discarding value")
		return map[string]any{}
	}
	return mapped
}

func normalizeFloat(value float64) any {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Sprint(value)
	}
	return value
}

func normalizeJSONNumber(value json.Number) any {
	if i, err := value.Int64(); err == nil {
		return i
	}
	if f, err := value.Float64(); err == nil {
		return f
	}
	return value.String()
}

func normalizeBigInt(value *big.Int) any {
	if value.IsInt64() {
		return value.Int64()
	}
	return value.String()
}

func normalizeBigFloat(value *big.Float) any {
	if f, accuracy := value.Float64(); accuracy == big.Exact {
		return f
	}
	return value.Text('f', -1)
}

func fileInfoToReference(info fs.FileInfo) map[string]any {
	metadata := map[string]any{"size": info.Size()}
	if contentType := mime.TypeByExtension(filepath.Ext(info.Name())); contentType != "" {
		metadata["contentType"] = contentType
	}
	return ResourceReference{
		URI:      info.Name(),
		Metadata: metadata,
	}.toMap()
}

// asResourceReferenceMap detects maps already shaped as a resource reference:
// a non-empty "uri" string plus a "type" or "kind" discriminator equal to
// "resource". The optional fields are normalized on the way through.
func asResourceReferenceMap(value map[string]any) (map[string]any, bool) {
	uri, ok := value["uri"].(string)
	if !ok || uri == "" {
		return nil, false
	}
	discriminator, _ := value["type"].(string)
	if discriminator == "" {
		discriminator, _ = value["kind"].(string)
	}
	if discriminator != resourceReferenceType {
		return nil, false
	}

	out := map[string]any{
		"type": resourceReferenceType,
		"uri":  uri,
	}
	if name, ok := value["name"].(string); ok && name != "" {
		out["name"] = name
	}
	if description, ok := value["description"].(string); ok && description != "" {
		out["description"] = description
	}
	if metadata, ok := value["metadata"]; ok && metadata != nil {
		if mapped, ok := NormalizeValue(metadata).(map[string]any); ok {
			out["metadata"] = mapped
		}
	}
	return out, true
}

func normalizeMap(rv reflect.Value) map[string]any {
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key().Interface()
		name, ok := key.(string)
		if !ok {
			name = fmt.Sprint(key)
		}
		out[name] = NormalizeValue(iter.Value().Interface())
	}
	return out
}

func normalizeSlice(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = NormalizeValue(rv.Index(i).Interface())
	}
	return out
}

// normalizeStruct handles the remaining struct types: values with their own
// JSON encoding keep it, values with a string form use it, everything else is
// rendered through fmt.
func normalizeStruct(value any) any {
	if marshaler, ok := value.(json.Marshaler); ok {
		encoded, err := marshaler.MarshalJSON()
		if err == nil {
			var decoded any
			if err := json.Unmarshal(encoded, &decoded); err == nil {
				return NormalizeValue(decoded)
			}
		}
	}
	if stringer, ok := value.(fmt.Stringer); ok {
		return stringer.String()
	}
	return fmt.Sprint(value)
}
