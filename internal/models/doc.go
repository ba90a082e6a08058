// Package models defines domain entities and persistence interfaces for the tunedash listening statistics client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): structs mirroring the backend's JSON payloads
//   - [Status] : Result of the session check, with an optional [UserProfile]
//   - [AnalysisResult] : Genre [Buckets], server-side top genres and the total track count
//   - [Track] and [Artist] : Rank-ordered records passed through from the streaming API
//
// 2. Derived and persistent entities
//   - [ChartSeries] : Read-only chart view of an [AnalysisResult], coloured from a [Palette]
//   - [Dashboard] : The three result slots (analysis, tracks, artists) and their chart, always populated together
//   - [Snapshot] : A persisted [Dashboard] with ID, sequence and soft delete support
//
// [Buckets] decode from a JSON object while keeping the key order the backend emitted,
// since ranking ties and chart colours both depend on it.
//
// Persistent entities implement the Model interface; the Repository[T] interface defines standard CRUD operations.
package models
