// Package datastore provides a reusable library for registering typed
// content (free text, uploaded files, external links) against projects,
// with pluggable record-store and blob-store backends.
//
// It exposes a single Service interface that orchestrates the content
// lifecycle: classifying an incoming item by kind, storing blob-backed
// payloads (Text and file kinds) in an external blob store, and keeping the
// blob store and record store consistent across create, update, and delete.
// There is no cross-store transaction; the service orders its two remote
// calls to bound the inconsistency window and tolerates orphaned blobs in
// exchange for never leaving a dangling record. Implementations of
// repositories (memory, Postgres) and blob stores (memory, filesystem, S3)
// are provided under subpackages.
package datastore
