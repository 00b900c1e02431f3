package scene

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultRigPath is where the bundled hand rig is installed, relative to the
// data directory.
const DefaultRigPath = "hand.yaml"

//go:embed rigs/hand.yaml
var defaultRig []byte

// DefaultRig returns the bundled hand rig description: a wrist bone with
// three y-forward segments per finger and Default, Fist, Point and Grab clips.
func DefaultRig() []byte {
	return append([]byte(nil), defaultRig...)
}

// InstallDefaultRig writes the bundled rig to DefaultRigPath under dir unless
// a file is already there. It reports whether it wrote one.
func InstallDefaultRig(dir string) (bool, error) {
	path := filepath.Join(dir, DefaultRigPath)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("install default rig: %w", err)
	}
	if _, err := f.Write(defaultRig); err != nil {
		f.Close()
		os.Remove(path)
		return false, fmt.Errorf("install default rig: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("install default rig: %w", err)
	}
	return true, nil
}
