// package models defines the data model for the voice session engine
package models

// Track represents a locally available, playable track.
//
// Identity is the stable on-disk filename; uniqueness is enforced by the
// library directory. Tracks are owned by the catalog and read-only to
// every other component.
type Track struct {
	ID              string // On-disk filename, e.g. "song_a.mp3"
	Title           string // Normalized human-readable title
	Artist          string // Artist label when known, empty otherwise
	DurationSeconds int    // Track length in whole seconds, 0 if unknown
}

// RemoteCandidate represents one result from a remote media search.
//
// Candidates are ephemeral: a result set is superseded by the next search.
type RemoteCandidate struct {
	Title         string `json:"title"`
	SourceURL     string `json:"url"`
	DurationLabel string `json:"duration"`
	AuthorLabel   string `json:"author"`
}

// JobState enumerates the lifecycle of a download job.
type JobState int

const (
	JobPending JobState = iota
	JobDownloading
	JobTranscoding
	JobDone
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobPending:
		return "pending"
	case JobDownloading:
		return "downloading"
	case JobTranscoding:
		return "transcoding"
	case JobDone:
		return "done"
	case JobFailed:
		return "failed"
	default:
		return ""
	}
}

// DownloadJob describes one in-flight acquisition, keyed by destination id.
type DownloadJob struct {
	ID              string   // Job identifier (uuid)
	DestinationID   string   // Target filename in the library
	SourceURL       string   // Remote media URL
	ProgressPercent int      // Monotonic progress in [0,100]
	State           JobState // Current lifecycle state
}
