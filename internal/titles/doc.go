// Package titles provides display-title normalization helpers shared by the
// catalog lookup path.
package titles
