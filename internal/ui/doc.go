// Package ui implements the interactive remote-play flow using bubbletea's
// Elm architecture.
//
// The workflow has three views:
//  1. [CandidateListView] : browse remote search results
//  2. [DownloadView] : watch acquisition progress (download, then transcode)
//  3. [ResultView] : playback confirmation or failure
//
// The [Model] implements the standard Init/Update/View pattern. Acquisition
// progress flows through a channel from the orchestrator's progress
// callback, keeping the download non-blocking for the event loop.
package ui
