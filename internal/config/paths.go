package config

import (
	"os"
	"path/filepath"
)

const defaultBaseDir = ".kinobot"

// Paths holds resolved filesystem paths for kinobot data.
type Paths struct {
	Base   string // ~/.kinobot
	Config string // ~/.kinobot/config.yaml
	Data   string // ~/.kinobot/data
}

// ResolvePaths computes all standard paths from the home directory.
// If KINOBOT_HOME is set, it overrides the default base directory.
func ResolvePaths() (Paths, error) {
	base := os.Getenv("KINOBOT_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Paths{}, err
		}
		base = filepath.Join(home, defaultBaseDir)
	}

	return Paths{
		Base:   base,
		Config: filepath.Join(base, "config.yaml"),
		Data:   filepath.Join(base, "data"),
	}, nil
}

// EnsureDirs creates the standard directories if they don't exist.
func (p Paths) EnsureDirs() error {
	for _, d := range []string{p.Base, p.Data} {
		if err := os.MkdirAll(d, 0o700); err != nil {
			return err
		}
	}
	return nil
}
