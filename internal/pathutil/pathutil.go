// Package pathutil contains helpers to locate files on disk
package pathutil

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the path to the config directory
func ConfigDir() string {
	_, err := os.Stat("/.dockerenv")
	if err == nil {
		return "/config"
	}

	// fallback on current directory
	return ""
}

// ConfigFile returns the path of the named file inside the config
// directory
func ConfigFile(name string) string {
	return filepath.Join(ConfigDir(), name)
}
