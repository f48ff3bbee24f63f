// Package config loads the dashboard and proxy configuration.
//
// # Dashboard
//
// Load reads a TOML file, by default ~/.config/lessondesk/config.toml. A
// missing file is not an error: the dashboard runs on defaults so it works
// out of the box against a proxy on localhost.
//
//	api_url = "http://127.0.0.1:8787"
//	data_dir = "~/.local/share/lessondesk"
//	fields_file = ""
//	early_minutes = 5
//	sync_seconds = 30
//	refresh_seconds = 30
//	window_seconds = 60
//	probe_seconds = 10
//
// Every key is optional. Blank strings and non-positive intervals fall back
// to the defaults; early_minutes may be 0. Paths get tilde expansion.
//
// data_dir holds the offline snapshot, the attendance log and the log file
// (see Config.LogPath).
//
// # Proxy
//
// LoadProxy reads the proxy settings from the environment. A .env file is
// loaded first when present; variables already set win over it.
//
//	BASEROW_BASE_URL        Baserow instance, required
//	BASEROW_TOKEN           database token, required
//	BASEROW_TABLE_ID        students table, default 831
//	LESSONDESK_LISTEN       listen address, default :8787
//	LESSONDESK_FIELDS_FILE  optional field table override
package config
