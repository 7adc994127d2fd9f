// Package thread implements per-thread analysis state.
//
// Each thread of a trace gets its own State tracking its lifecycle, the locks
// it holds, its pending lock request and its logical time. The logical time
// is kept in three forms:
//   - C: the full vector clock (frontier) of the thread
//   - Epoch: cached C[TID] for O(1) access
//   - a shared view of C used by event stamps
//
// A Stamp records the logical time of a single event. Stamps are cheap: they
// share the view clock, which is cloned only when C gains knowledge about
// other threads (fork, join, acquire), never on a plain tick.
//
// Invariant: Epoch == epoch.NewEpoch(TID, C[TID]) at all times.
package thread
