// Package aging drives the repeated burn-in ("aging") test of a two channel fixture.
//
// A run consists of a configured number of cycles. Each cycle is executed by the
// [Engine] as a small state machine across both channels in lockstep:
//
//	EnterSent -> EnterVerified -> Waiting -> ResultSent -> ResultParsed -> Done
//
// with the terminal CycleFailed state reachable only before the aging wait starts:
// when either channel does not acknowledge the enter-test command the cycle fails
// immediately and the long wait is skipped. Once waiting begins a cycle always runs
// to completion and is scored, late failures become part of its outcome.
//
// The [Runner] repeats cycles, isolates a failing cycle from the rest of the run,
// pauses between cycles and hands the append-only result log to a [Reporter].
//
// Every wait is interruptible through the run context; cancellation is the only way
// to stop a run early. Apart from cancellation, the only fatal error is an incomplete
// command table, detected before any port is touched.
package aging
