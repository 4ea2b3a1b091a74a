package netrpc

import "errors"

// Errors returned synchronously from the public API — spec.md §7 kind 6
// (API misuse), realized as ordinary Go errors rather than panics.
var (
	// ErrAlreadyRunning is returned by StartServer/StartClient when the
	// Manager is not in the Uninitialized state.
	ErrAlreadyRunning = errors.New("netrpc: manager is already running")
	// ErrNotRunning is returned by Stop when the Manager has no active
	// transport.
	ErrNotRunning = errors.New("netrpc: manager is not running")
	// ErrNotHost is returned by Spawn whenever the Manager is not in the
	// Hosting state (on a client, or before any Start); only the host may
	// initiate a spawn.
	ErrNotHost = errors.New("netrpc: only the host may spawn entities")

	// ErrClosedClientSet mirrors the teacher's ErrClosedGroup: returned
	// by clientSet operations after Close.
	ErrClosedClientSet    = errors.New("netrpc: client set is closed")
	ErrClientDuplication  = errors.New("netrpc: client has already been added to the client set")
)
