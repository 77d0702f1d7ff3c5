// Package datarecording stores flat records into database tables. SQLite is
// the default store; ClickHouse and MongoDB are selected by the scheme of the
// target passed to Open.
//
// A table is declared with a sample struct; every exported field becomes a
// column. Entries are buffered and written in batches, and buffered entries
// are flushed when the process exits.
package datarecording
