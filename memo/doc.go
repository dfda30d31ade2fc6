// Package memo memoizes an expensive computation so that it runs at
// most once, no matter how many callers ask for its result or how many
// of them ask at the same time.
//
// A Cache holds a single value. Its entry starts Empty, moves to
// InFlight on the first Get and to Ready when the computation returns.
// Callers arriving while a computation is in flight wait for it on a
// shared channel instead of starting their own. A failed computation is
// delivered to every caller waiting on it; what happens to the entry
// afterwards depends on the FailurePolicy.
//
// A Keyed cache does the same for a set of string keys, each with its
// own entry, collapsing concurrent requests per key with
// golang.org/x/sync/singleflight.
//
// Neither cache evicts, expires or invalidates a Ready value.
package memo
