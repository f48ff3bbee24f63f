// Package attendance keeps the local lesson attendance log.
//
// One record exists per student and calendar day; setting a status again
// replaces the record. A missing record for today means the lesson is
// expected to happen as usual. Older logs may contain the statuses "krank"
// and "abgesagt"; they decode normally and are counted with the
// student-cancelled and teacher-cancelled buckets respectively.
//
// The log is a single JSON blob in the data directory. Read and write
// failures are logged and the store behaves as if it were empty, so the
// dashboard keeps working with a broken or read-only data directory.
//
// ExportXLSX renders records as a spreadsheet for the monthly paperwork.
package attendance
