package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	TemplateManifest = "manifest"
	TemplateSettings = "settings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case TemplateManifest:
		return manifestTemplate, nil
	case TemplateSettings:
		return settingsTemplate, nil
	default:
		return "", fmt.Errorf("unknown template kind: %s", kind)
	}
}

// WriteTemplate writes a starter file, creating parent directories.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(template), 0o644)
}

const manifestTemplate = `// Packages for every host.
## *
base
base-devel
git
// aur:yay

// Packages only for the host named "desktop".
// ## @desktop
// nvidia
`

const settingsTemplate = `# manifest = "~/.config/pkgctl/pkg.conf"
pacman = "pacman"
aur_helper = "yay"
sudo = "sudo"
# state_dir = "~/.config/pkgctl"
# log_level = "warn"
# no_color = false
# metrics_file = "/var/lib/node_exporter/textfile/pkgctl.prom"

# [remote]
# host = "archbox"
# port = "22"
# user = "arch"
# key_path = "~/.ssh/id_ed25519"
# passphrase_env = "PKGCTL_KEY_PASSPHRASE"
# known_hosts = "~/.ssh/known_hosts"
# timeout = "10s"
`
