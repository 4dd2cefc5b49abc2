package keyset

// backend is the build-time-selected container behind KeySet. Keys
// passed to insert are already owned by the set; ascend must visit keys
// in ascending byte order and stop when the callback returns false.
type backend interface {
	insert(key []byte) bool
	remove(key []byte) bool
	contains(key []byte) bool
	size() int
	ascend(fn func(key []byte) bool)
	clone() backend
}
