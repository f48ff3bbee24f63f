// Package app is the composition root of the lessondesk dashboard.
//
// # Overview
//
// Run wires configuration, the field table, the gateway client, storage,
// the connectivity monitor, the offline cache, the attendance store and the
// UI, then blocks in the UI until the user quits.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()          Read config.toml
//	       ├─────> tea.LogToFile()        Route log output to <data_dir>/lessondesk.log
//	       ├─────> gateway.NewClient()    HTTP client for the proxy
//	       ├─────> netwatch.New().Start() Health probes, offline detection
//	       ├─────> state.New().Initialize() Restore snapshot, start flush timer
//	       ├─────> attendance.NewStore()  Attendance log
//	       ├─────> StartPoller()          Roster refresh loop
//	       └─────> ui.Run()               Dashboard (blocks)
//
// # Polling
//
// The poller refreshes the roster right away and then every refresh
// interval (config refresh_seconds, or -poll). Rounds are skipped while
// the monitor reports offline; failures are logged and the cache keeps
// serving the last roster. Pending edits are not the poller's job: the
// cache's own timer flushes them.
//
// # Export
//
// ExportAttendance writes the attendance log to an xlsx file. It reads the
// offline snapshot for student names and never touches the network, so it
// works without a proxy.
package app
