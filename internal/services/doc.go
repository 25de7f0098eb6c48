// Package services holds cross-cutting service plumbing: the error taxonomy
// shared by remote clients and the sweep runner, and context annotations used
// for structured logging.
package services
