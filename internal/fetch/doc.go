// Package fetch is the single network-access primitive used by the catalog
// and library clients. It issues JSON requests with a bounded retry budget,
// a fixed inter-attempt delay, and an optional request rate limit.
package fetch
