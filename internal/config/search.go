package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	appDirName       = "ginn"
	wishFileName     = "wishes.xml"
	wishDropInDir    = "wishes.d"
	wishesEnvVar     = "GINN_WISHES"
	defaultConfigDir = "/etc/xdg"
)

// ConfigHome is $XDG_CONFIG_HOME, or ~/.config.
func ConfigHome() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config"), nil
}

// ConfigDirs is $XDG_CONFIG_DIRS, or /etc/xdg, most important first.
func ConfigDirs() []string {
	var dirs []string
	for _, dir := range filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS")) {
		if dir = strings.TrimSpace(dir); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		dirs = []string{defaultConfigDir}
	}
	return dirs
}

// SearchPath lists the base directories searched for wishes, least
// important first, so that later sources override earlier ones.
func SearchPath() []string {
	dirs := ConfigDirs()
	if home, err := ConfigHome(); err == nil {
		dirs = append([]string{home}, dirs...)
	}
	out := make([]string, 0, len(dirs))
	seen := make(map[string]struct{}, len(dirs))
	for i := len(dirs) - 1; i >= 0; i-- {
		dir := filepath.Clean(dirs[i])
		if _, dup := seen[dir]; dup {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	return out
}

// WishDirs are the directories that may hold wish sources, in search order.
func WishDirs() []string {
	var out []string
	for _, base := range SearchPath() {
		out = append(out, filepath.Join(base, appDirName), filepath.Join(base, appDirName, wishDropInDir))
	}
	return out
}

// DiscoverWishSources returns, for each search directory in order,
// ginn/wishes.xml followed by ginn/wishes.d/*.xml sorted by name.
func DiscoverWishSources() []string {
	var files []string
	for _, base := range SearchPath() {
		dir := filepath.Join(base, appDirName)
		main := filepath.Join(dir, wishFileName)
		if isFile(main) {
			files = append(files, main)
		}
		dropIns, _ := filepath.Glob(filepath.Join(dir, wishDropInDir, "*.xml"))
		sort.Strings(dropIns)
		for _, f := range dropIns {
			if isFile(f) {
				files = append(files, f)
			}
		}
	}
	return files
}

// WishFiles decides which wish sources to load: override (the command line),
// then $GINN_WISHES, then wish_sources, then discovery.
func (c *Config) WishFiles(override []string) []string {
	if len(override) > 0 {
		return cleanPaths(override)
	}
	if env := os.Getenv(wishesEnvVar); env != "" {
		return cleanPaths(filepath.SplitList(env))
	}
	if len(c.WishSources) > 0 {
		return cleanPaths(c.WishSources)
	}
	return DiscoverWishSources()
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, filepath.Clean(expandHome(p)))
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
