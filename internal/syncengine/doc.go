// Package syncengine keeps the local clipboard and the remote store
// converged on one text value.
//
// The engine remembers the last value it accepted (lastContent) and when it
// accepted it (lastUpdate). Each tick of the loop:
//   - skips everything if the remote store is unreachable, probing it so the
//     engine notices when it comes back
//   - reads the local clipboard and, if the value changed and the quiescence
//     window has passed since lastUpdate, accepts it and pushes it in the
//     background
//   - fetches the remote value and, if it is non-empty, changed, and the
//     window has passed (re-checked after the local branch), accepts it and
//     writes it to the clipboard
//
// Local changes win ties: a local accept consumes the window, so a remote
// change seen in the same tick waits for a later tick.
//
// Failures from the automatic loop are logged and counted in Stats. Manual
// SyncToRemote and SyncFromRemote calls return them. An accepted value is
// never rolled back when propagating it fails.
package syncengine
