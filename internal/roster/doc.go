// Package roster defines the student record shown by the dashboard and the
// small value helpers (weekday, payment and drum kit labels, progress
// steppers) that operate on it. It performs no I/O.
package roster
