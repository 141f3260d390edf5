package term

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Leaves(t *testing.T) {
	t.Parallel()

	atom, err := Decode([]byte(`"a"`))
	require.NoError(t, err)
	assert.Equal(t, KindAtom, atom.Kind())
	assert.Equal(t, "a", atom.Name())

	variable, err := Decode([]byte(`"X"`))
	require.NoError(t, err)
	assert.Equal(t, KindVariable, variable.Kind())

	underscore, err := Decode([]byte(`"_1a"`))
	require.NoError(t, err)
	assert.Equal(t, KindVariable, underscore.Kind())

	integer, err := Decode([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, KindNumber, integer.Kind())
	assert.Equal(t, "42", integer.Name())
}

// Numeric literals must survive decoding byte for byte, or a render
// round trip would change the term the engine sees.
func TestDecode_PreservesNumberLiteral(t *testing.T) {
	t.Parallel()
	for _, literal := range []string{"1", "1.1", "-3", "0.5", "1e10"} {
		decoded, err := Decode([]byte(literal))
		require.NoError(t, err)
		assert.Equal(t, literal, decoded.String(), "literal %s", literal)
	}
}

func TestDecode_Compound(t *testing.T) {
	t.Parallel()
	decoded, err := Decode([]byte(`{"functor":"color","args":["blue"]}`))
	require.NoError(t, err)
	assert.Equal(t, KindCompound, decoded.Kind())
	assert.Equal(t, "color", decoded.Name())
	require.Len(t, decoded.Args(), 1)
	assert.Equal(t, "blue", decoded.Args()[0].Name())
	assert.Equal(t, "color(blue)", decoded.String())
}

func TestDecode_NestedStructure(t *testing.T) {
	t.Parallel()
	payload := `[{"functor":"a","args":[{"functor":"b","args":["d"]}]},{"functor":"b","args":["c"]}]`
	decoded, err := Decode([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, KindList, decoded.Kind())
	assert.Equal(t, "[a(b(d)), b(c)]", decoded.String())
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte(`{not json`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"args":["a"]}`))
	assert.Error(t, err, "object without functor")

	_, err = Decode([]byte(`{"functor":"a"}`))
	assert.Error(t, err, "object without args")

	_, err = Decode([]byte(`null`))
	assert.Error(t, err)
}

// mustDecodeEquivalent encodes tm the way the engine would and decodes
// it back.
func mustDecodeEquivalent(t *testing.T, tm Term) Term {
	t.Helper()
	decoded, err := Decode([]byte(encodeJSON(tm)))
	require.NoError(t, err)
	return decoded
}

// encodeJSON produces the engine's JSON serialization of a term.
func encodeJSON(tm Term) string {
	switch tm.Kind() {
	case KindCompound:
		parts := make([]string, len(tm.Args()))
		for i, a := range tm.Args() {
			parts[i] = encodeJSON(a)
		}
		return `{"functor":` + strconv.Quote(tm.Name()) + `,"args":[` + strings.Join(parts, ",") + `]}`
	case KindList:
		parts := make([]string, len(tm.Args()))
		for i, a := range tm.Args() {
			parts[i] = encodeJSON(a)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindNumber:
		return tm.Name()
	default:
		return strconv.Quote(tm.Name())
	}
}
