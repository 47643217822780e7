package shared

// KeyLocker serializes work per key. Lock blocks until the key is free and
// returns the matching unlock function.
type KeyLocker interface {
	Lock(key string) (unlock func())
}
