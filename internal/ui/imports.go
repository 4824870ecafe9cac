package ui

import "github.com/bamsammich/ferry/internal/event"

// Event is re-exported so presenters can be driven without importing event.
type Event = event.Event

// Re-export event types for convenience.
const (
	BuildStarted        = event.BuildStarted
	PatternResolved     = event.PatternResolved
	PatternFailed       = event.PatternFailed
	FileCopied          = event.FileCopied
	FileSkipped         = event.FileSkipped
	FileFailed          = event.FileFailed
	AssetWritten        = event.AssetWritten
	AssetUnchanged      = event.AssetUnchanged
	PermissionsRestored = event.PermissionsRestored
	PermissionsFailed   = event.PermissionsFailed
	BuildComplete       = event.BuildComplete
)
