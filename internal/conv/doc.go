// Package conv provides checked integer conversions for values read from or
// written to persisted headers.
//
// Every failure wraps ErrOverflow. Conversions that are provably safe by
// construction (loop indices, bounded counters) use plain casts instead.
package conv
