// Package system adapts pacman and an AUR helper to the reconcile flows.
//
// Ownership boundary:
// - installed/orphan package queries
// - install, mark, and orphan removal execution
// - host identity lookup
package system
