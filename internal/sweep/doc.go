// Package sweep orchestrates a full library classification run: it resolves
// the tier-to-profile mapping up front, fans items out to a bounded worker
// pool, and contains per-item failures so one bad item never aborts the run.
package sweep
