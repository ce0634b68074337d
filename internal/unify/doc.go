// Package unify merges the per-kind record tables into one
// timestamp-ordered sequence of record references.
//
// The merged view is a read-only projection: every call re-queries the
// store and never mutates it. At expected volumes (thousands of rows) the
// strategy is query-all, concatenate, sort; a deployment with very large
// tables would instead stream a true k-way merge of the per-kind queries,
// each already sorted at the source.
package unify
