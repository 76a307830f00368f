// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying storage mechanism (PostgreSQL or
// in-memory) from the dispatcher and the HTTP layer.
package store
