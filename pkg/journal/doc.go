// Package journal persists the observability event stream to SQLite so
// operators can query what happened at the table after the fact. It stores
// event history only, never engine state: WAL mode, pooled connections,
// and embedded schema migrations.
package journal
