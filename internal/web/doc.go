// Package web serves the track library over HTTP: listing, multipart
// uploads and guarded deletes. It writes straight into the library
// directory and relies on the catalog reload to make changes visible to
// the rotation.
package web
