package commands

import (
	"fmt"

	"github.com/danmuck/pkgctl/internal/manifest"
)

// Validate checks manifest syntax without touching the system.
func (a *App) Validate() error {
	doc, err := manifest.ParseFile(a.opts.ManifestPath)
	if err != nil {
		return err
	}
	a.success(fmt.Sprintf("Configuration is valid: %s", a.opts.ManifestPath))
	a.plain("  %d sections, %d total package entries", len(doc.Sections), doc.EntryCount())
	return nil
}
