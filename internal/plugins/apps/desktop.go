package apps

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	"tucan/internal/domain"
)

const desktopSection = "Desktop Entry"

var iniOptions = ini.LoadOptions{
	IgnoreInlineComment:     true,
	IgnoreContinuation:      true,
	SkipUnrecognizableLines: true,
	PreserveSurroundedQuote: true,
	KeyValueDelimiters:      "=",
}

// ParseDesktop turns the contents of a .desktop file into an entry. ok is false
// for files that should not be listed: missing Name or Exec, a Type other than
// Application, or NoDisplay/Hidden set.
func ParseDesktop(path string, data []byte) (entry domain.Entry, ok bool, err error) {
	f, err := ini.LoadSources(iniOptions, data)
	if err != nil {
		return domain.Entry{}, false, fmt.Errorf("parse %s: %w", path, err)
	}
	sec, err := f.GetSection(desktopSection)
	if err != nil {
		return domain.Entry{}, false, nil
	}

	name := strings.TrimSpace(sec.Key("Name").String())
	exec := strings.TrimSpace(sec.Key("Exec").String())
	if name == "" || exec == "" {
		return domain.Entry{}, false, nil
	}
	if sec.Key("Type").String() != "Application" {
		return domain.Entry{}, false, nil
	}
	if sec.Key("NoDisplay").MustBool(false) || sec.Key("Hidden").MustBool(false) {
		return domain.Entry{}, false, nil
	}

	meta := strings.TrimSpace(sec.Key("GenericName").String())
	if meta == "" {
		meta = "Application"
	}

	return domain.Entry{
		ID:     path,
		Title:  name,
		Action: "launch",
		Meta:   meta,
	}, true, nil
}

// LaunchName is the argument gtk-launch expects for a desktop file
func LaunchName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".desktop")
}

// DataDirs returns the applications directories from the XDG base directory
// variables, system directories first
func DataDirs() []string {
	system := os.Getenv("XDG_DATA_DIRS")
	if system == "" {
		system = "/usr/local/share:/usr/share"
	}

	var dirs []string
	for _, d := range filepath.SplitList(system) {
		if d != "" {
			dirs = append(dirs, filepath.Join(d, "applications"))
		}
	}

	home := os.Getenv("XDG_DATA_HOME")
	if home == "" {
		if expanded, err := homedir.Expand("~/.local/share"); err == nil {
			home = expanded
		}
	}
	if home != "" {
		dirs = append(dirs, filepath.Join(home, "applications"))
	}
	return dirs
}
