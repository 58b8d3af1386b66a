package config

import "time"

// Application constants
const (
	AppName = "remitcli"

	// Status messages reported per run
	MsgRunProcessed = "All records processed, cleaned, and uploaded"
	MsgNoSections   = "No valid tables found."

	// Object names used when storage config leaves them empty
	DefaultRawObject     = "output_combined.xlsx"
	DefaultCleanedObject = "cleaned_output_combined.xlsx"

	// Upload input
	UploadExtension = ".html"
	MaxUploadBytes  = 32 << 20

	// Network timeouts
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultRenderWait    = 15 * time.Second
	DefaultBatchDeadline = 30 * time.Minute

	// Log settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
