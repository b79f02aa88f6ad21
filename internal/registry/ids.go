package registry

import "sync/atomic"

// idCounter is the process-wide monotonic counter backing every
// function, lambda, and class identifier (spec.md §3). Positive ids
// denote user-defined entities; negative ids denote built-ins; id 0 is
// reserved as "none/unknown". Identity is allocation order, not
// structural content, so a content-hash id scheme has no role here.
var idCounter int64

// NextID returns a fresh positive id for a user-defined function,
// lambda, or class.
func NextID() int64 {
	return atomic.AddInt64(&idCounter, 1)
}

// builtinCounter mints negative ids for built-in functions and
// classes, descending from -1.
var builtinCounter int64

// NextBuiltinID returns a fresh negative id for a built-in entity.
func NextBuiltinID() int64 {
	return -atomic.AddInt64(&builtinCounter, 1)
}
