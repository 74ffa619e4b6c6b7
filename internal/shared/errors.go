package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Connection errors
	ErrConnectionTimeout = fmt.Errorf("connection timed out")
	ErrConnectionLost    = fmt.Errorf("connection lost")
	ErrNotConnected      = fmt.Errorf("not connected")

	// Playback errors
	ErrPlaybackTransient = fmt.Errorf("transient playback error")
	ErrPlaybackFatal     = fmt.Errorf("fatal playback error")
	ErrNothingPlaying    = fmt.Errorf("nothing playing")

	// Catalog errors
	ErrCatalogEmpty     = fmt.Errorf("catalog is empty")
	ErrTrackNotFound    = fmt.Errorf("track not found")
	ErrInvalidSelection = fmt.Errorf("invalid selection")

	// Acquisition errors
	ErrAcquisitionNetwork    = fmt.Errorf("acquisition network error")
	ErrAcquisitionDecode     = fmt.Errorf("acquisition decode error")
	ErrAcquisitionStalled    = fmt.Errorf("acquisition stalled")
	ErrAcquisitionTimeout    = fmt.Errorf("acquisition timed out")
	ErrAcquisitionInProgress = fmt.Errorf("acquisition already in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
