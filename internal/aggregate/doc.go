// Package aggregate composes read-only queries that span entity kinds:
// a case-insensitive substring search over all four tables and the
// recent-activity context view.
package aggregate
