// Package memory provides in-process implementations of the store
// interfaces. Entities are copied on the way in and on the way out so callers
// never share mutable state with the store.
package memory
