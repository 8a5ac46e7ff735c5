// Package onlineconfig keeps the server pool synchronized with remotely
// published SIP008 documents. Each service owns one remote URL and one
// pool source tag, fetches the document on a fixed interval, and replaces
// only the pool entries it owns. The first fetch happens synchronously at
// construction and its failure fails construction; every later failure is
// logged and retried on the next tick.
package onlineconfig
