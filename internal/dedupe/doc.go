// Package dedupe remembers idempotency keys and their results for a limited
// time so repeated submissions can be answered without repeating the work.
package dedupe
