// Package commands implements the pkgctl command flows on top of the
// manifest, reconcile and system packages.
//
// Ownership boundary:
// - validate, status, diff, sync, fmt, and init flows
// - first-run guard and confirmation handling
// - metrics emission after a run
package commands
