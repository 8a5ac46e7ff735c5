// Package pool implements the shared upstream server pool. Entries are
// tagged with the source that produced them (static configuration or an
// online-config service), and replace operations are scoped by tag so
// each producer only ever touches its own entries.
package pool
