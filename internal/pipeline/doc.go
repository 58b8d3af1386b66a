// Package pipeline orchestrates one report run: acquire the document,
// extract its sections, write the raw combined spreadsheet, normalize,
// write the cleaned spreadsheet and record both uploads.
//
// The service depends only on the Fetcher, Sink and Recorder interfaces
// declared here. Which storage backend or metadata store sits behind them is
// decided by the command that wires the service.
package pipeline
