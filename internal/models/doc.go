// Package models contains the value types shared across the engine:
// [Track] (catalog entries), [RemoteCandidate] (remote search results)
// and [DownloadJob] (in-flight acquisitions).
//
// All types here are plain data. Behavior lives with the owning component:
// tracks are created and destroyed by the catalog, candidates by the
// provider client, jobs by the acquisition pipeline.
package models
