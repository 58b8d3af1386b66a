// Package storage holds the output sinks the pipeline writes spreadsheets to.
//
// Sink is implemented by Local (a directory), GCS (a Google Cloud Storage
// bucket) and Azure (a Blob Storage container). Every failure is returned as
// a STORAGE application error carrying the backend and object name; a
// missing object also wraps ErrNotFound.
package storage
