// Package platform resolves the per-OS desktop location of the watch directory.
package platform

import (
	"errors"
	"fmt"
	"strings"
)

// DataDirName is the folder on the user's desktop that holds the watch file.
const DataDirName = "email_service_data"

// ErrUnsupported is returned for operating systems without a table entry.
var ErrUnsupported = errors.New("unsupported platform")

// Platform describes where a user's profile lives and how paths are joined.
type Platform struct {
	Name      string
	HomeEnv   string
	Separator string
}

var platforms = map[string]Platform{
	"darwin":  {Name: "darwin", HomeEnv: "HOME", Separator: "/"},
	"windows": {Name: "windows", HomeEnv: "USERPROFILE", Separator: `\`},
}

// Resolve looks up goos (a runtime.GOOS value).
func Resolve(goos string) (Platform, error) {
	p, ok := platforms[goos]
	if !ok {
		return Platform{}, fmt.Errorf("%w: %q (set watch.dir to choose a directory)", ErrUnsupported, goos)
	}
	return p, nil
}

// Join concatenates elements with the platform separator.
func (p Platform) Join(elem ...string) string {
	return strings.Join(elem, p.Separator)
}

// WatchDir returns <home>/Desktop/email_service_data.
func (p Platform) WatchDir(getenv func(string) string) (string, error) {
	home := getenv(p.HomeEnv)
	if home == "" {
		return "", fmt.Errorf("%s is not set", p.HomeEnv)
	}
	return p.Join(strings.TrimRight(home, p.Separator), "Desktop", DataDirName), nil
}
