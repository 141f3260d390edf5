package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Classification(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		kind Kind
	}{
		{"a", KindAtom},
		{"abc", KindAtom},
		{"hello world", KindAtom},
		{"X", KindVariable},
		{"Auto", KindVariable},
		{"_", KindVariable},
		{"_1", KindVariable},
		{"_1a", KindVariable},
		{"", KindAtom},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, Text(tt.text).Kind(), "text %q", tt.text)
	}
}

func TestName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "a", Text("a").Name())
	assert.Equal(t, "X", Text("X").Name())
	assert.Equal(t, "1.5", Number("1.5").Name())
	assert.Equal(t, "color", NewCompound("color", Text("blue")).Name())
	assert.Equal(t, "", NewList(Text("a")).Name())
}

func TestArgs(t *testing.T) {
	t.Parallel()
	c := NewCompound("pair", Text("a"), Text("b"))
	require.Len(t, c.Args(), 2)
	assert.Equal(t, "a", c.Args()[0].Name())
	assert.Equal(t, "b", c.Args()[1].Name())

	l := NewList(Number("1"), Number("2"))
	require.Len(t, l.Args(), 2)

	assert.Empty(t, Text("a").Args())
}

func TestRequiresQuote(t *testing.T) {
	t.Parallel()
	tests := []struct {
		text string
		want bool
	}{
		{"b", false},
		{"abc", false},
		{"ab_c", false},
		{"ab1", false},
		{"_", false},  // reads back as a variable, quoting would change it
		{"X", false},  // same
		{"b A", true}, // embedded space
		{"1b", true},  // leading digit
		{"", true},
		{"hello-world", true},
		{"[]", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequiresQuote(tt.text), "text %q", tt.text)
	}
}

func TestString_Rendering(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		term Term
		want string
	}{
		{"atom", Text("a"), "a"},
		{"quoted atom", Text("b A"), "'b A'"},
		{"variable", Text("X"), "X"},
		{"anonymous variable", Text("_"), "_"},
		{"integer", Number("1"), "1"},
		{"float", Number("1.1"), "1.1"},
		{"compound", NewCompound("a", Text("b")), "a(b)"},
		{"compound two args", NewCompound("a", Text("b"), Text("c")), "a(b, c)"},
		{"quoted functor", NewCompound("a b", Text("c")), "'a b'(c)"},
		{"nested compound", NewCompound("a", NewCompound("b", Text("d"))), "a(b(d))"},
		{"list", NewList(NewCompound("a", Text("b")), NewCompound("b", Text("c"))), "[a(b), b(c)]"},
		{"empty list", NewList(), "[]"},
		{"mixed list", NewList(Number("2"), Number("1.1")), "[2, 1.1]"},
		{"quoted args", NewCompound("a b", NewList(Text("1b"), Text("a b"))), "'a b'(['1b', 'a b'])"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.term.String())
		})
	}
}

// Rendering then re-decoding the engine's JSON for the same term must be
// stable, so query results can be fed back to the engine as source text.
func TestString_RoundTripStable(t *testing.T) {
	t.Parallel()
	terms := []Term{
		Text("a"),
		Number("1"),
		Number("1.1"),
		NewCompound("a", Text("b")),
		NewCompound("a", Text("b"), Text("c")),
		NewList(NewCompound("a", NewCompound("b", Text("d"))), NewCompound("b", Text("c"))),
		NewCompound("a", Text("b A")),
		NewCompound("a", Text("1b")),
	}
	for _, tm := range terms {
		rendered := tm.String()
		assert.Equal(t, rendered, mustDecodeEquivalent(t, tm).String(), "render of %s", rendered)
	}
}
