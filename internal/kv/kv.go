// Package kv is the key-value persistence boundary. The session store writes a
// single serialized entry through it; everything else in the system is
// in-memory and resets every run.
package kv

// Store holds opaque values under string keys.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
}
