// Package sqlite provides the default embedded storage backend.
//
// A single database file holds the course catalog, reviews, uploaded
// content, embedding records and an FTS5 keyword index. The keyword index
// is written in the same transaction as each embedding, so a keyword hit
// always has a stored embedding. Vector search is a brute-force cosine scan.
package sqlite
