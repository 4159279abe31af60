package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	appName      = "novelpiad"
	defaultLabel = "Default"
	profileExt   = ".yaml"
)

var ErrNoConfig = errors.New("no config selected")

func ConfigRoot() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, appName)
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

func ConfigsDir() string {
	return filepath.Join(ConfigRoot(), "configs")
}

func CurrentLabelFile() string {
	return filepath.Join(ConfigRoot(), "current_config")
}

// ConfigPathByLabel returns the profile path for label without checking
// that it exists.
func ConfigPathByLabel(label string) string {
	return filepath.Join(ConfigsDir(), label+profileExt)
}

func checkLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) || label == "." || label == ".." {
		return fmt.Errorf("invalid label %q", label)
	}
	return nil
}

func ensureDirs() error {
	return os.MkdirAll(ConfigsDir(), 0755)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func setCurrent(label string) error {
	return os.WriteFile(CurrentLabelFile(), []byte(label), 0644)
}

func CurrentLabel() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	b, err := os.ReadFile(CurrentLabelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func ActiveConfigPath() (string, error) {
	label, err := CurrentLabel()
	if errors.Is(err, ErrNoConfig) || (err == nil && label == "") {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	return ConfigPathByLabel(label), nil
}

type ConfigInfo struct {
	Label  string
	Path   string
	Active bool
}

func ListConfigs() ([]ConfigInfo, error) {
	if err := ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ConfigsDir())
	if err != nil {
		return nil, err
	}

	active, _ := CurrentLabel()
	var out []ConfigInfo

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, profileExt) {
			continue
		}

		label := strings.TrimSuffix(name, profileExt)
		out = append(out, ConfigInfo{
			Label:  label,
			Path:   filepath.Join(ConfigsDir(), name),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func SwitchConfig(label string) error {
	if err := checkLabel(label); err != nil {
		return err
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	if !exists(ConfigPathByLabel(label)) {
		return fmt.Errorf("config %q does not exist", label)
	}

	return setCurrent(label)
}

// CreateConfig writes a new profile holding cfg, or the defaults when cfg
// is nil.
func CreateConfig(label string, cfg *Config) (string, error) {
	if err := checkLabel(label); err != nil {
		return "", err
	}
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := ConfigPathByLabel(label)
	if exists(path) {
		return "", fmt.Errorf("config %q already exists", label)
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := SaveYAML(cfg, path); err != nil {
		return "", err
	}

	return path, nil
}

func RenameConfig(oldLabel, newLabel string) error {
	if err := checkLabel(newLabel); err != nil {
		return err
	}
	if oldLabel == defaultLabel {
		return errors.New("cannot rename the Default config")
	}
	if err := ensureDirs(); err != nil {
		return err
	}

	oldPath, newPath := ConfigPathByLabel(oldLabel), ConfigPathByLabel(newLabel)
	if !exists(oldPath) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if exists(newPath) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return err
	}

	if active, _ := CurrentLabel(); active == oldLabel {
		return setCurrent(newLabel)
	}

	return nil
}

// RemoveConfig deletes a profile. Removing the active one moves the
// selection back to Default; the returned flag reports that switch.
func RemoveConfig(label string) (bool, error) {
	if err := checkLabel(label); err != nil {
		return false, err
	}
	if label == defaultLabel {
		return false, errors.New("cannot remove the Default config")
	}
	if err := ensureDirs(); err != nil {
		return false, err
	}

	path := ConfigPathByLabel(label)
	if !exists(path) {
		return false, fmt.Errorf("config %q does not exist", label)
	}

	switched := false
	if active, _ := CurrentLabel(); active == label {
		if _, err := InitDefaultConfig(); err != nil && !errors.Is(err, os.ErrExist) {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(path)
}

// InitDefaultConfig makes sure Default exists and selects it. os.ErrExist
// is returned alongside the path when the profile was already there.
func InitDefaultConfig() (string, error) {
	if err := ensureDirs(); err != nil {
		return "", err
	}

	path := ConfigPathByLabel(defaultLabel)
	if exists(path) {
		return path, errors.Join(os.ErrExist, setCurrent(defaultLabel))
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, setCurrent(defaultLabel)
}

// ResetActiveConfig overwrites the selected profile with the built-in
// defaults.
func ResetActiveConfig() (string, error) {
	path, err := ActiveConfigPath()
	if err != nil {
		return "", err
	}

	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", err
	}

	return path, nil
}
