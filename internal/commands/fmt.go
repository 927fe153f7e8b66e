package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/pkgctl/internal/manifest"
)

// Fmt prints the manifest in canonical form, or rewrites it in place.
// Comments and blank lines survive either way.
func (a *App) Fmt(write bool) error {
	text, err := manifest.ReadFile(a.opts.ManifestPath)
	if err != nil {
		return err
	}
	formatted, err := manifest.Normalize(text)
	if err != nil {
		return err
	}
	if !write {
		_, err := io.WriteString(a.out.Writer(), formatted)
		return err
	}
	if formatted == text {
		a.success(fmt.Sprintf("Already formatted: %s", a.opts.ManifestPath))
		return nil
	}

	info, err := os.Stat(a.opts.ManifestPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.opts.ManifestPath, []byte(formatted), info.Mode().Perm()); err != nil {
		return fmt.Errorf("rewrite manifest (%s): %w", a.opts.ManifestPath, err)
	}
	a.success(fmt.Sprintf("Formatted %s", a.opts.ManifestPath))
	return nil
}
