// Package store provides the key-value persistence used for cached
// coordinates and the last published widget snapshot. Values are opaque
// strings; callers serialize their own payloads.
package store

// Store is a flat string key-value store with last-write-wins semantics.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set writes the value for key, overwriting any previous value.
	Set(key, value string) error
	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string) error
}
