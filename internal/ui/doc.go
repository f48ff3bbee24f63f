// Package ui is the Bubble Tea dashboard.
//
// The model polls the offline cache once a second and recomputes the
// now/next window and the day's list whenever the roster version changes,
// plus once a minute so countdowns advance. Field edits go through the
// cache, which applies them before any network call; attendance is written
// straight to the local log.
//
// Views:
//
//	today     now/next banner, today's students (cancelled ones hidden), detail
//	students  every student with search, sort and drum kit filter
//	logs      tail of the client log file
package ui
