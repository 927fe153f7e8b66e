package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const markerName = ".initialized"

// MarkerPath is the file recording that the first-run warning was accepted.
func (a *App) MarkerPath() string {
	return filepath.Join(a.opts.StateDir, markerName)
}

// checkFirstRun asks for confirmation before the first destructive sync and
// records the answer in the state directory.
func (a *App) checkFirstRun() error {
	marker := a.MarkerPath()
	if _, err := os.Stat(marker); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("check first-run marker (%s): %w", marker, err)
	}

	a.out.Warning("First time setup detected")
	a.out.Blank()
	a.out.Plain("Before proceeding, it's recommended to back up your currently installed packages:")
	a.out.Blank()
	a.out.Plain("    pacman -Qqe > ~/pkglist-backup.txt")
	a.out.Blank()
	a.out.Plain("This will allow you to restore your system if needed.")
	a.out.Blank()

	ok, err := a.prompt.Confirm("Continue?")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserCancelled, err)
	}
	if !ok {
		return ErrUserCancelled
	}

	if err := os.MkdirAll(filepath.Dir(marker), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return fmt.Errorf("write first-run marker: %w", err)
	}
	return nil
}
