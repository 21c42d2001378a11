// Package models defines domain entities and persistence interfaces for the genre statistics pipeline.
//
// The package contains two categories of types:
//
// 1. Pipeline values: in-memory structs that live for a single run
//   - [Credential] : client credentials exchanged for a token
//   - [AccessToken] : bearer token presented on every catalog request
//   - [CategoryQuery] : one genre search with its result limit
//   - [TrackRecord] : one flattened track returned for a genre
//   - [CategorySummary] : per-genre means, one row of the artifact
//   - [ExpectationResult] : outcome of a data-quality check
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [RunRecord] : audit entry describing one finished pipeline run
//
// All persistent entities implement the Model interface providing ID generation, timestamps and validation.
// The Repository[T] interface defines standard CRUD operations for database access.
package models
