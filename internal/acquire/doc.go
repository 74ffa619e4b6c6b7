// Package acquire fetches remote audio into the local library.
//
// A [Provider] resolves free-text queries into remote candidates and opens
// their audio streams. The [Pipeline] downloads a candidate to a temporary
// artifact, hands it to a [Transcoder] for conversion into library audio
// and publishes the result with an atomic rename, so the destination path
// never holds a partial file. Per destination at most one job runs at a
// time; concurrent requests attach to the in-flight job and share its
// progress and outcome.
package acquire
