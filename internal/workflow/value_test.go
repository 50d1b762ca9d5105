package workflow

import (
	"encoding/json"
	"io/fs"
	"math"
	"math/big"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFileInfo struct {
	name string
	size int64
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return f.size }
func (f fakeFileInfo) Mode() fs.FileMode  { return 0 }
func (f fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (f fakeFileInfo) IsDir() bool        { return false }
func (f fakeFileInfo) Sys() any           { return nil }

// ============ NormalizeValue ============

func TestNormalizeValue_Primitives(t *testing.T) {
	assert.Nil(t, NormalizeValue(nil))
	assert.Equal(t, true, NormalizeValue(true))
	assert.Equal(t, "hello", NormalizeValue("hello"))
	assert.Equal(t, 42, NormalizeValue(42))
	assert.Equal(t, 1.5, NormalizeValue(1.5))
}

func TestNormalizeValue_NonFiniteFloatsBecomeStrings(t *testing.T) {
	inf := NormalizeValue(math.Inf(1))
	_, ok := inf.(string)
	assert.True(t, ok, "infinite float should normalize to its string form")

	nan := NormalizeValue(math.NaN())
	_, ok = nan.(string)
	assert.True(t, ok, "NaN should normalize to its string form")
}

func TestNormalizeValue_BigNumbers(t *testing.T) {
	small := big.NewInt(12345)
	assert.Equal(t, int64(12345), NormalizeValue(small))

	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", NormalizeValue(huge))

	integral := big.NewFloat(7)
	assert.Equal(t, float64(7), NormalizeValue(integral))
}

func TestNormalizeValue_TimeAndURI(t *testing.T) {
	moment := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01T10:30:00Z", NormalizeValue(moment))

	parsed, err := url.Parse("s3://bucket/dataset.csv")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/dataset.csv", NormalizeValue(parsed))
}

func TestNormalizeValue_FileBecomesResourceReference(t *testing.T) {
	normalized := NormalizeValue(fakeFileInfo{name: "corpus.csv", size: 2048})

	ref, ok := normalized.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "resource", ref["type"])
	assert.Equal(t, "corpus.csv", ref["uri"])

	metadata, ok := ref["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, int64(2048), metadata["size"])
}

func TestNormalizeValue_MapComposite(t *testing.T) {
	input := map[string]any{
		"a": 1,
		"b": []any{true, false},
	}

	normalized := NormalizeValue(input)
	assert.Equal(t, map[string]any{"a": 1, "b": []any{true, false}}, normalized)
}

func TestNormalizeValue_TypedMapAndSlice(t *testing.T) {
	normalized := NormalizeValue(map[string]int{"x": 1, "y": 2})
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, normalized)

	listed := NormalizeValue([]string{"a", "b"})
	assert.Equal(t, []any{"a", "b"}, listed)
}

func TestNormalizeValue_NonStringMapKeys(t *testing.T) {
	normalized := NormalizeValue(map[int]string{1: "one"})
	assert.Equal(t, map[string]any{"1": "one"}, normalized)
}

func TestNormalizeValue_ResourceReferencePassthrough(t *testing.T) {
	input := map[string]any{
		"type": "resource",
		"uri":  "s3://bucket/data.parquet",
		"name": "training set",
		"metadata": map[string]any{
			"rows": 10000,
		},
	}

	normalized := NormalizeValue(input)
	ref, ok := normalized.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "resource", ref["type"])
	assert.Equal(t, "s3://bucket/data.parquet", ref["uri"])
	assert.Equal(t, "training set", ref["name"])
}

func TestNormalizeValue_KindDiscriminator(t *testing.T) {
	input := map[string]any{
		"kind": "resource",
		"uri":  "file:///tmp/out.json",
	}

	ref, ok := NormalizeValue(input).(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "resource", ref["type"])
}

func TestNormalizeValue_Idempotent(t *testing.T) {
	inputs := []any{
		nil,
		"text",
		12,
		3.14,
		[]any{1, "two", map[string]any{"three": 3}},
		map[string]any{"nested": map[string]any{"deep": []any{true}}},
		map[string]any{"type": "resource", "uri": "s3://b/k"},
		time.Now(),
		big.NewInt(9),
	}

	for _, input := range inputs {
		once := NormalizeValue(input)
		twice := NormalizeValue(once)
		assert.Equal(t, once, twice)
	}
}

func TestNormalizeValue_OutputIsJSONSerializable(t *testing.T) {
	inputs := []any{
		map[string]any{"fn": func() {}},
		struct{ Hidden string }{Hidden: "x"},
		make(chan int),
		[]any{complex(1, 2)},
	}

	for _, input := range inputs {
		normalized := NormalizeValue(input)
		_, err := json.Marshal(normalized)
		assert.NoError(t, err, "normalized %T must be JSON serializable", input)
	}
}

// ============ NormalizeParameters ============

func TestNormalizeParameters_MapInput(t *testing.T) {
	params := NormalizeParameters(zerolog.Nop(), map[string]any{"format": "csv"})
	assert.Equal(t, map[string]any{"format": "csv"}, params)
}

func TestNormalizeParameters_NilInput(t *testing.T) {
	assert.Equal(t, map[string]any{}, NormalizeParameters(zerolog.Nop(), nil))
}

func TestNormalizeParameters_RejectsSequences(t *testing.T) {
	params := NormalizeParameters(zerolog.Nop(), []any{"not", "a", "mapping"})
	assert.Equal(t, map[string]any{}, params)
}

func TestNormalizeParameters_RejectsScalars(t *testing.T) {
	assert.Equal(t, map[string]any{}, NormalizeParameters(zerolog.Nop(), "csv"))
	assert.Equal(t, map[string]any{}, NormalizeParameters(zerolog.Nop(), 7))
}
