package cache

type hitResult[T any] struct {
	data    T
	valid   bool
	claimed bool
}

// Cache stores values by key and lets exactly one caller claim a missing key
// while others wait for it to be filled
type Cache[T any] interface {
	getOrClaim(key string) hitResult[T]
	set(key string, data T)
	delete(key string)
	wait()
}
