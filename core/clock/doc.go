// Package clock abstracts the time operations used by retry loops.
//
// Production code injects Real(). Tests inject a Fake, which fires every
// wait immediately and records the requested durations so backoff
// schedules can be asserted without sleeping.
package clock
