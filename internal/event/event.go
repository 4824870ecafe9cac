package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	BuildStarted Type = iota + 1
	PatternResolved
	PatternFailed
	FileCopied
	FileSkipped
	FileFailed
	AssetWritten
	AssetUnchanged
	PermissionsRestored
	PermissionsFailed
	BuildComplete
)

var typeNames = [...]string{
	BuildStarted:        "BuildStarted",
	PatternResolved:     "PatternResolved",
	PatternFailed:       "PatternFailed",
	FileCopied:          "FileCopied",
	FileSkipped:         "FileSkipped",
	FileFailed:          "FileFailed",
	AssetWritten:        "AssetWritten",
	AssetUnchanged:      "AssetUnchanged",
	PermissionsRestored: "PermissionsRestored",
	PermissionsFailed:   "PermissionsFailed",
	BuildComplete:       "BuildComplete",
}

func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from a build.
type Event struct {
	Type      Type
	Timestamp time.Time
	Pattern   string // the pattern's from
	Path      string // source path relative to the pattern context
	Dest      string // asset path relative to the output root
	Reason    string // why a file was skipped
	Size      int64
	Total     int64 // matched files (PatternResolved) or assets (BuildComplete)
	Error     error
}

// Emit sends e on ch, stamping it if needed. A nil channel discards.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	ch <- e
}
