// Package sanitizer normalizes user-supplied strings before validation and
// storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input never produces an error; it is reduced to
// whatever part of it is usable, possibly the empty string.
package sanitizer
