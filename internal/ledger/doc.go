// Package ledger persists episode dispositions and the duplicate-title
// registry in a single SQLite database. The episodes table records what each
// run did per title; the duplicates table is the durable alias map consulted
// in later runs to skip titles already judged duplicates.
package ledger
