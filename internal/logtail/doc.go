// Package logtail reads the dashboard's log file for the log view.
//
// # Reading
//
// Read returns the last maxLines of a file using a ring buffer, so memory
// stays at O(maxLines) regardless of file size. A non-positive maxLines
// returns every line. A missing file yields nil, nil: the dashboard may
// not have logged anything yet.
//
//	lines, err := logtail.Read(cfg.LogPath(), 400)
//
// # Parsing
//
// The dashboard logs through the standard library logger, so lines look
// like
//
//	2026/10/18 15:04:05 sync: dropping 7_buch_1 after 3 failed attempts
//
// Parse splits off the timestamp and guesses a Level from the wording.
// Lines without a timestamp are kept whole. The UI picks colors per Level.
package logtail
