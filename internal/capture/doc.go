// Package capture implements quick capture: minimal text submissions stored
// as notes in the "capture:<type>" category, with the type, source and
// capture time recorded as structured tags.
//
// Capture accepts an optional idempotency key. A repeated key within the
// dedupe window returns the first result without storing a second note.
package capture
