// Package saves handles the local save directory and moves save files
// between disk and server: downloading the current save for a game and
// uploading a completed turn.
package saves

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/ini.v1"

	"github.com/civ5pbem/civ5client"
)

var (
	ErrUnknownOperatingSystem = errors.New("saves: no known save directory for this operating system")
	ErrNoSaves                = errors.New("saves: no save files in directory")
)

const (
	savesSection = "Saves"
	savePathKey  = "save_path"
)

// SaveFileExtension is the extension Civilization 5 gives its save files.
const SaveFileExtension = ".Civ5Save"

// DefaultSavePath returns the per-OS directory Civilization 5 keeps
// hotseat saves in, with ~ expanded.
func DefaultSavePath() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "linux":
		dir = "~/.local/share/Aspyr/Sid Meier's Civilization 5/Saves"
	case "darwin":
		dir = "~/Documents/Aspyr/Sid Meier's Civilization 5/Saves"
	case "windows":
		dir = "~/My Games/Sid Meier's Civilization 5/Saves"
	default:
		return "", ErrUnknownOperatingSystem
	}
	return homedir.Expand(dir)
}

// PathFromConfig reads the save directory from the config file.
func PathFromConfig(configPath string) (string, error) {
	cfg, err := ini.Load(configPath)
	if err != nil {
		return "", civ5client.ErrInvalidConfiguration
	}
	section, err := cfg.GetSection(savesSection)
	if err != nil || !section.HasKey(savePathKey) {
		return "", civ5client.ErrInvalidConfiguration
	}
	return section.Key(savePathKey).String(), nil
}

// WritePathConfig stores the save directory in the config file, leaving
// other sections untouched.
func WritePathConfig(configPath, savePath string) error {
	cfg, err := ini.LooseLoad(configPath)
	if err != nil {
		return err
	}
	cfg.Section(savesSection).Key(savePathKey).SetValue(savePath)
	return cfg.SaveTo(configPath)
}

// LatestSave returns the most recently modified save file in a directory.
func LatestSave(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var newest string
	var newestMod int64
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), SaveFileExtension) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = entry.Name()
			newestMod = info.ModTime().UnixNano()
		}
	}
	if newest == "" {
		return "", ErrNoSaves
	}
	return filepath.Join(dir, newest), nil
}
