// Package reconcile turns a parsed manifest and live package state into an
// action plan.
//
// Ownership boundary:
// - per-host package selection with first-seen deduplication
// - install/remove plan computation
// - status summaries for reporting
package reconcile
