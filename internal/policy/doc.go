// Package policy holds the ordered tier rules and the pure classification
// function that picks exactly one tier per library item.
package policy
