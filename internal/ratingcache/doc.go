// Package ratingcache persists catalog ratings in SQLite, keyed by the
// catalog service's own identifier. Entries go stale by age rather than being
// deleted; GetOrFetch re-fetches and overwrites anything older than the
// freshness window.
package ratingcache
