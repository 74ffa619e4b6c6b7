// Package catalog maintains the searchable index over the local track library.
//
// The catalog is derived state: the library directory is the single source
// of truth, and [Catalog.Reload] rebuilds the whole index from a directory
// listing. There is no persistent database.
//
// # Fuzzy Search
//
// [Catalog.Search] matches queries against normalized titles (extension
// stripped, separators mapped to spaces) using normalized levenshtein
// distance. Scores are in [0,1] with lower meaning closer; the displayed
// match percentage is round((1-score)*100). Matches above the configured
// threshold are dropped and results are capped.
//
// # Watching
//
// [Catalog.Watch] uses fsnotify to reload the index when files appear in or
// vanish from the library directory, debounced so multi-chunk uploads
// trigger a single rescan. The [Catalog.SetOnChange] hook lets the playback
// controller refresh its rotation when the track set changes.
package catalog
