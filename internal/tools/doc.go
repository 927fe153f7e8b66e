// Package tools provides the command execution boundary used by the system
// adapters.
//
// Ownership boundary:
// - local command execution
// - remote command execution over ssh
// - shell quoting for remote command lines
package tools
