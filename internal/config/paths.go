// ABOUTME: Standard filesystem paths for nlsh configuration
// ABOUTME: Resolves ~/.nlsh/ for global and .nlsh/ for project-local paths

package config

import (
	"os"
	"path/filepath"
)

const dirName = ".nlsh"

// GlobalDir returns the user-global config directory (~/.nlsh/).
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", dirName)
	}
	return GlobalDirIn(home)
}

// GlobalDirIn returns the config directory for an explicit home directory.
func GlobalDirIn(home string) string {
	return filepath.Join(home, dirName)
}

// ProjectDir returns the project-local config directory (.nlsh/ in root).
func ProjectDir(projectRoot string) string {
	return filepath.Join(projectRoot, dirName)
}

// GlobalConfigFile returns the path to the global config file.
func GlobalConfigFile() string {
	return filepath.Join(GlobalDir(), "config.json")
}

// ProjectConfigFile returns the path to the project-local config file.
func ProjectConfigFile(projectRoot string) string {
	return filepath.Join(ProjectDir(projectRoot), "config.json")
}

// GlobalIntentsFile is the user intent library loaded when present.
func GlobalIntentsFile() string {
	return filepath.Join(GlobalDir(), "intents.yaml")
}
