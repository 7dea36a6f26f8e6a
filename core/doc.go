// Package core implements requestor composition: the Reason/Result model,
// the run engine that supervises a list of requestors, and the Sequence,
// Parallel, Race and Fallback combinators built on it.
//
// Each combinator invocation owns a run session driven by its own
// SequencedTaskRunner. All session state is changed by tasks on that
// runner, one at a time, which gives every invocation the behaviour of a
// single-threaded event loop even though requestors may report from any
// goroutine. Launches are always posted, so a combinator never calls its
// receiver on the caller's stack.
package core
