// Package notifications delivers sweep lifecycle pushes over ntfy.
package notifications
