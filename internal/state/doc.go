// Package state provides the offline-first roster cache shared by the
// dashboard and the background sync machinery.
//
// # Overview
//
// Cache is the single source of truth for the UI. It holds the last known
// roster, the queue of edits that have not reached the backend yet, and the
// sync status. All three are saved as one JSON blob so the dashboard starts
// with data even when the proxy is down:
//
//	{"students": [...], "updateQueue": [...], "lastSync": 1700000000000, "syncStatus": "synced"}
//
// A missing or corrupt blob is treated as an empty cache.
//
// # Edits
//
// UpdateField runs in three steps, all before any network call:
//
//	cache.UpdateField(42, "buch", "Groove Essentials")
//	→ field table validates and translates (field_7835, "Groove Essentials")
//	→ roster entry 42 shows the new value
//	→ write appended to the queue, snapshot saved
//
// When online a flush starts in the background; otherwise the write waits
// for the next reconnect or timer tick.
//
// # Refresh
//
// Students returns the cached roster immediately and, when the roster is
// older than the refresh interval, fetches a new one in the background.
// A fresh roster replaces the cached one and then every pending write is
// applied on top of it in queue order, so an edit that has not been sent
// yet never flickers back to the server value.
//
// # Status
//
//	loading ──► synced | offline
//	synced  ──► syncing        edit, timer tick or refresh with pending writes
//	syncing ──► synced         queue empty after a flush
//	syncing ──► error          writes still pending after a flush
//	any     ──► offline        connectivity lost
//	offline ──► syncing        reconnect with pending writes (synced if none)
//	any     ──► error          roster refresh failed
//
// # Concurrency
//
// The roster and status sit behind a sync.RWMutex; Snapshot returns copies.
// The flush timer is a robfig/cron schedule wrapped in SkipIfStillRunning,
// and the queue itself refuses to start a second pass while one is running.
// Destroy stops the timer and the connectivity subscription but lets calls
// already in flight finish; Wait blocks until they have.
package state
