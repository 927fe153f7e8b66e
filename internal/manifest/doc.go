// Package manifest owns the declarative package manifest format.
//
// Ownership boundary:
// - manifest document shape (sections, scopes, entries)
// - line-oriented parsing with line-pinned errors
// - canonical formatting back to manifest text
package manifest
