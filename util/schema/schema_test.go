package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query    string  `json:"query" description:"The search query."`
	Language *string `json:"language" description:"Language edition code."`
	Limit    int     `json:"limit" description:"Result count."`
	Mode     string  `json:"mode" enum:"fast, full"`
	Ignored  string  `json:"-"`
	Untagged bool
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(searchArgs{})

	assert.Equal(t, "object", s.Type)
	assert.ElementsMatch(t, []string{"query", "limit", "mode", "untagged"}, s.Required)
	assert.NotContains(t, s.Required, "language")

	query, ok := s.Properties["query"]
	require.True(t, ok)
	assert.Equal(t, "string", query.Type)
	assert.Equal(t, "The search query.", query.Description)

	language, ok := s.Properties["language"]
	require.True(t, ok)
	assert.Equal(t, "string", language.Type)

	limit, ok := s.Properties["limit"]
	require.True(t, ok)
	assert.Equal(t, "integer", limit.Type)

	mode, ok := s.Properties["mode"]
	require.True(t, ok)
	assert.Equal(t, []interface{}{"fast", "full"}, mode.Enum)

	_, ok = s.Properties["-"]
	assert.False(t, ok)
	_, ok = s.Properties["ignored"]
	assert.False(t, ok)

	untagged, ok := s.Properties["untagged"]
	require.True(t, ok)
	assert.Equal(t, "boolean", untagged.Type)
}

func TestFromStructPointer(t *testing.T) {
	s := FromStruct(&searchArgs{})
	assert.Equal(t, "object", s.Type)
	assert.Contains(t, s.Properties, "query")
}

func TestDecodeArgs(t *testing.T) {
	args, err := DecodeArgs[searchArgs](map[string]interface{}{
		"query":    "Mount Fuji",
		"language": "ja",
		"limit":    3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mount Fuji", args.Query)
	require.NotNil(t, args.Language)
	assert.Equal(t, "ja", *args.Language)
	assert.Equal(t, 3, args.Limit)
}

func TestDecodeArgsWeaklyTyped(t *testing.T) {
	// Models sometimes send numbers as strings and vice versa.
	args, err := DecodeArgs[searchArgs](map[string]interface{}{
		"query": 42,
		"limit": "7",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", args.Query)
	assert.Equal(t, 7, args.Limit)
}

func TestDecodeArgsNilMap(t *testing.T) {
	args, err := DecodeArgs[searchArgs](nil)
	require.NoError(t, err)
	assert.Equal(t, "", args.Query)
	assert.Nil(t, args.Language)
}

func TestDecodeArgsUnknownKeysIgnored(t *testing.T) {
	args, err := DecodeArgs[searchArgs](map[string]interface{}{
		"query":      "go",
		"fabricated": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "go", args.Query)
}
