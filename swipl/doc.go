// Package swipl drives a SWI-Prolog engine process as if it were an
// in-process library, over the machine query protocol.
//
// A Server owns the engine process and its connection parameters; a
// Thread is a single engine-side logical thread that runs queries
// serially. Queries are opaque goal strings, exactly what you would
// type at the engine's top level.
//
// # Quick Start
//
// Run a query and wait for all solutions:
//
//	server := swipl.NewServer()
//	defer server.Stop()
//
//	thread := server.NewThread()
//	defer thread.Stop()
//
//	result, err := thread.Query("member(X, [first, second, third])")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, answer := range result.Answers {
//	    fmt.Println(answer["X"])
//	}
//
// # Incremental Results
//
// Retrieve solutions one at a time as the engine produces them:
//
//	if err := thread.QueryAsync("member(X, [first, second, third])", false); err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    result, err := thread.QueryAsyncResult(-1)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if result == nil {
//	        break // all results delivered
//	    }
//	    fmt.Println(result.Answers[0]["X"])
//	}
//
// # Concurrency
//
// A Thread is deliberately blocking: each request writes one frame and
// waits for the reply. For concurrent goals create several Threads on
// the same Server; the engine runs each on its own thread.
//
// # Attaching
//
// For debugging, the engine can be launched by hand and attached to:
//
//	server := swipl.NewServer(
//	    swipl.WithAttach(),
//	    swipl.WithUnixDomainSocket("/tmp/mysocket"),
//	    swipl.WithPassword("8UIDSSDXLPOI"),
//	)
package swipl
