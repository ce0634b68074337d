// Package analyze computes response-time statistics over event chains and
// activity summaries over the record tables.
//
// Analytics here are advisory: no operation is fatal. A chain without
// enough usable timestamps degrades to an insufficient-data result, and
// malformed timestamps are skipped for arithmetic while still counted in
// raw totals. The qualitative rating tiers are a presentation policy and
// are configurable, not hard-coded.
package analyze
