// Package term models the term format used in replies from the
// SWI-Prolog machine query server.
//
// Replies arrive as JSON and decode into an immutable closed variant:
// atoms, variables, numbers, lists and compound terms. A variable is
// distinguished from an atom solely by its first character being
// uppercase or an underscore. Terms render back to engine source text
// with Term.String, applying single-quote rules so the output reads
// back as the same term:
//
//	t, err := term.Decode([]byte(`{"functor":"color","args":["blue"]}`))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(t.String()) // color(blue)
//
// The package deliberately stops at structural classification (functor
// name, argument count, atom vs list vs variable); it is not a Prolog
// reader.
package term
