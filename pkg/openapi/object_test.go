package openapi

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"zeta": 1, "alpha": {"b": true, "a": null}, "mid": [1, 2.5, "x"]}`))
	require.NoError(t, err)

	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())
	assert.Equal(t, []string{"b", "a"}, obj.Object("alpha").Keys())
	assert.True(t, obj.Object("alpha").Has("a"))
	assert.Nil(t, obj.Object("alpha").Value("a"))
	assert.Equal(t, int64(1), obj.Value("zeta"))
	assert.Equal(t, []any{int64(1), 2.5, "x"}, obj.Slice("mid"))
}

func TestParseJSONAndYAMLAgree(t *testing.T) {
	jsonDoc := []byte(`{"paths": {"/b": {"get": {"summary": "B"}}, "/a": {"post": {"deprecated": true, "x-rank": 3}}}}`)
	yamlDoc := []byte(`
paths:
  /b:
    get:
      summary: B
  /a:
    post:
      deprecated: true
      x-rank: 3
`)

	fromJSON, err := Parse(jsonDoc)
	require.NoError(t, err)
	fromYAML, err := Parse(yamlDoc)
	require.NoError(t, err)

	a, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	b, err := json.Marshal(fromYAML)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
	assert.Equal(t, []string{"/b", "/a"}, fromYAML.(*Object).Object("paths").Keys())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: "   "},
		{name: "trailing data", input: `{"a": 1} {"b": 2}`},
		{name: "truncated", input: `{"a": `},
		{name: "bad yaml", input: "a: [1, 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrDecodeSchema)
		})
	}
}

func TestObjectMarshalJSONOrder(t *testing.T) {
	obj := NewObject()
	obj.Set("z", 1)
	obj.Set("a", "two")
	obj.Set("z", 3)

	out, err := json.Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"z":3,"a":"two"}`, string(out))
}

func TestObjectZeroValueAndNil(t *testing.T) {
	var zero Object
	zero.Set("k", "v")
	assert.Equal(t, "v", zero.String("k"))

	var nilObj *Object
	assert.Equal(t, 0, nilObj.Len())
	assert.Nil(t, nilObj.Keys())
	assert.False(t, nilObj.Has("k"))
	assert.Nil(t, nilObj.Object("k"))
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var holder struct {
		Schema *Object `json:"schema"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"schema": {"type": "object", "properties": {"b": {}, "a": {}}}}`), &holder))
	assert.Equal(t, "object", holder.Schema.String("type"))
	assert.Equal(t, []string{"b", "a"}, holder.Schema.Object("properties").Keys())
}
