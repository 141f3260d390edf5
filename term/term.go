package term

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind identifies the structural shape of a Term.
type Kind int

const (
	KindAtom Kind = iota
	KindVariable
	KindNumber
	KindList
	KindCompound
)

func (k Kind) String() string {
	switch k {
	case KindAtom:
		return "atom"
	case KindVariable:
		return "variable"
	case KindNumber:
		return "number"
	case KindList:
		return "list"
	case KindCompound:
		return "compound"
	default:
		return "unknown"
	}
}

// Term is an immutable Prolog term decoded from an engine reply.
// The zero value is the empty atom.
type Term struct {
	text string
	args []Term
	kind Kind
}

// Text returns an atom or variable term depending on the leading rune:
// an uppercase letter or underscore means a variable. This mirrors the
// engine's reply format, where the distinction is purely a naming
// convention, not a separate type.
func Text(s string) Term {
	if isVariableText(s) {
		return Term{kind: KindVariable, text: s}
	}
	return Term{kind: KindAtom, text: s}
}

// Number returns a numeric term carrying the exact literal, so that
// re-rendering reproduces the engine's spelling (1.1 stays 1.1).
func Number(literal string) Term {
	return Term{kind: KindNumber, text: literal}
}

// NewList returns a list term with the given elements.
func NewList(items ...Term) Term {
	return Term{kind: KindList, args: items}
}

// NewCompound returns a compound term functor(args...).
func NewCompound(functor string, args ...Term) Term {
	return Term{kind: KindCompound, text: functor, args: args}
}

// Kind returns the structural shape of the term.
func (t Term) Kind() Kind {
	return t.kind
}

// Name returns the atom or variable text, the number literal, or the
// compound functor name. Lists have no name and return "".
func (t Term) Name() string {
	if t.kind == KindList {
		return ""
	}
	return t.text
}

// Args returns the compound arguments or list elements. The returned
// slice is shared; callers must not modify it.
func (t Term) Args() []Term {
	return t.args
}

// String renders the term as engine source text: compounds as
// name(arg1, ..., argN), lists as [e1, ..., eN], atoms quoted when
// required. The output reads back as the same term.
func (t Term) String() string {
	switch t.kind {
	case KindCompound:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = a.String()
		}
		return quote(t.text) + "(" + strings.Join(parts, ", ") + ")"
	case KindList:
		parts := make([]string, len(t.args))
		for i, a := range t.args {
			parts[i] = a.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindAtom:
		return quote(t.text)
	default:
		// variables and numbers render verbatim
		return t.text
	}
}

// RequiresQuote reports whether atom text must be wrapped in single
// quotes to read back as the same atom: when it is empty, does not start
// with a letter, or contains anything other than letters, digits and
// underscores. Variable-shaped text is never quoted since quoting would
// turn it into an atom.
func RequiresQuote(text string) bool {
	if isVariableText(text) {
		return false
	}
	if text == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(text)
	if !unicode.IsLetter(first) {
		return true
	}
	for _, r := range text {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func quote(text string) string {
	if RequiresQuote(text) {
		return "'" + text + "'"
	}
	return text
}

func isVariableText(s string) bool {
	if s == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(s)
	return first == '_' || unicode.IsUpper(first)
}
