// Package gramstore provides an in-memory n-gram model for character text.
//
// Text is cut into fixed-width chunks by a growing tokenizer. Training counts
// every token n-gram of order MinOrder..MaxOrder into per-order sorted tables:
// a small hot table takes new observations and is spilled into a large cold
// table by an in-place merge when it fills up. Generation walks the cold
// tables, choosing each next token uniformly among the stored continuations
// of the current context and backing off to shorter contexts when nothing
// matches.
//
// # Quick Start
//
//	m, _ := gramstore.New(gramstore.DefaultConfig())
//	defer m.Close()
//
//	res, _ := m.TrainText(ctx, corpus)
//	fmt.Println(res.Status, res.Positions)
//
//	gen, _ := m.Generate(ctx, "Once upon a time")
//	for e := range gen.All() {
//	    fmt.Print(e.Text)
//	}
//	fmt.Println(gen.Status())
//
// # Modes
//
// Training holds the model exclusively; any number of generations may run
// together. A conflicting call fails with ErrBusy instead of waiting.
//
// # Cancellation
//
// Cancelling the context of a training run stops it cleanly. Counts gathered
// so far are kept and flushed into the cold tables, and the result reports
// TrainStopped. Cancelling a generation ends it with StatusStopped.
//
// # Nothing Is Persisted
//
// All tables live in memory for the lifetime of the Model.
package gramstore
