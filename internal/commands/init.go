package commands

import (
	"fmt"

	"github.com/danmuck/pkgctl/internal/config"
)

// Init writes starter manifest and settings files.
func (a *App) Init(overwrite bool) error {
	files := []struct {
		path string
		kind string
	}{
		{a.opts.ManifestPath, config.TemplateManifest},
		{a.opts.SettingsPath, config.TemplateSettings},
	}
	for _, f := range files {
		if f.path == "" {
			continue
		}
		if err := config.WriteTemplate(f.path, f.kind, overwrite); err != nil {
			return err
		}
		a.success(fmt.Sprintf("Wrote %s template: %s", f.kind, f.path))
	}
	return nil
}
