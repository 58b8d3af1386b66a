// Package metadata records a side entry for every spreadsheet the pipeline
// uploads: who uploaded it, where it went and how many rows it held.
//
// SQLiteStore keeps the records in a local file and is the default.
// GormStore writes them to PostgreSQL. Nop disables recording.
package metadata
