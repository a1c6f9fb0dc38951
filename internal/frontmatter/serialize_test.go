package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSerializeYAML_EmptyMap_ReturnsEmpty(t *testing.T) {
	out, err := SerializeYAML(map[string]any{}, Style{Newline: "\n"})
	require.NoError(t, err)
	require.Equal(t, "", string(out))
}

func TestSerializeYAML_DeterministicOrder(t *testing.T) {
	fields := map[string]any{
		"title":       "Guide",
		"icon":        "Book",
		"description": "How to",
		"order":       3,
	}

	out1, err := SerializeYAML(fields, Style{})
	require.NoError(t, err)
	out2, err := SerializeYAML(fields, Style{})
	require.NoError(t, err)
	require.Equal(t, string(out1), string(out2))
	require.Equal(t, "description: How to\nicon: Book\norder: 3\ntitle: Guide\n", string(out1))
}

func TestSerializeYAML_NestedAndCRLF(t *testing.T) {
	fields := map[string]any{
		"outer": map[string]any{"b": 2, "a": 1},
		"tags":  []any{"x", "z"},
	}

	out, err := SerializeYAML(fields, Style{Newline: "\r\n"})
	require.NoError(t, err)
	require.Equal(t, "outer:\r\n  a: 1\r\n  b: 2\r\ntags:\r\n  - x\r\n  - z\r\n", string(out))
}

func TestSerializeYAML_QuotesYAML11Booleans(t *testing.T) {
	// "y" and "no" read back as booleans under YAML 1.1 unless quoted.
	out, err := SerializeYAML(map[string]any{"tags": []any{"y", "no", "x"}}, Style{})
	require.NoError(t, err)
	require.Equal(t, "tags:\n  - \"y\"\n  - \"no\"\n  - x\n", string(out))
}

func TestSerializeYAML_RoundTripsThroughSplit(t *testing.T) {
	fm, err := SerializeYAML(map[string]any{"title": "Hello"}, Style{})
	require.NoError(t, err)

	doc := append(append([]byte("---\n"), fm...), []byte("---\nBody\n")...)
	meta, _, err := DecodeMeta(mustSplit(t, doc))
	require.NoError(t, err)
	require.Equal(t, "Hello", meta.Title)
}

func mustSplit(t *testing.T, doc []byte) []byte {
	t.Helper()
	fm, _, had, _, err := Split(doc)
	require.NoError(t, err)
	require.True(t, had)
	return fm
}
