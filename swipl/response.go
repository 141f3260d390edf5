package swipl

import (
	"fmt"
	"strings"

	"github.com/prologkit/swiplmqi/term"
)

// Answer maps a variable name to the term it was unified with. A
// solution with no free variables is an empty Answer.
type Answer map[string]term.Term

// QueryResult holds the decoded answers of a query, in solution order.
type QueryResult struct {
	Answers []Answer
}

// Succeeded reports that the query had at least one solution.
func (r *QueryResult) Succeeded() bool {
	return r != nil && len(r.Answers) > 0
}

// Failed reports that the query had no solutions.
func (r *QueryResult) Failed() bool {
	return !r.Succeeded()
}

// decodeResponse classifies one reply payload by its outer structural
// shape. It returns (nil, nil) for the end-of-results marker, a result
// for false()/true(...) replies, and a typed *Error for exception(...)
// replies. Any other shape is a protocol violation and comes back as a
// plain error for the caller to treat as a connection failure.
func decodeResponse(payload string) (*QueryResult, error) {
	// The body carries JSON followed by the protocol's ".\n" terminator.
	reply, err := term.Decode([]byte(strings.TrimSuffix(payload, ".\n")))
	if err != nil {
		return nil, err
	}

	switch reply.Name() {
	case "false":
		return &QueryResult{}, nil

	case "true":
		args := reply.Args()
		if len(args) == 0 || args[0].Kind() != term.KindList {
			return nil, fmt.Errorf("malformed true reply: %s", reply)
		}
		result := &QueryResult{}
		for _, bindings := range args[0].Args() {
			answer := Answer{}
			for _, binding := range bindings.Args() {
				// Each binding is an =(VarName, Term) pair.
				pair := binding.Args()
				if len(pair) != 2 {
					return nil, fmt.Errorf("malformed binding in reply: %s", binding)
				}
				answer[pair[0].Name()] = pair[1]
			}
			result.Answers = append(result.Answers, answer)
		}
		return result, nil

	case "exception":
		args := reply.Args()
		if len(args) != 1 {
			return nil, fmt.Errorf("malformed exception reply: %s", reply)
		}
		inner := args[0]
		switch inner.Name() {
		case "no_more_results":
			return nil, nil
		case "connection_failed":
			return nil, &Error{Kind: ExceptionConnectionFailed, Term: inner}
		case "time_limit_exceeded":
			return nil, &Error{Kind: ExceptionTimeout, Term: inner}
		case "no_query":
			return nil, &Error{Kind: ExceptionNoQuery, Term: inner}
		case "cancel_goal":
			return nil, &Error{Kind: ExceptionCancelled, Term: inner}
		case "result_not_available":
			return nil, &Error{Kind: ExceptionResultNotAvailable, Term: inner}
		default:
			return nil, &Error{Kind: ExceptionGeneric, Term: inner}
		}

	default:
		return nil, fmt.Errorf("unexpected reply shape: %s", reply)
	}
}
