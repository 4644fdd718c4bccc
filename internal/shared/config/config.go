package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultConfigRelPath = "configs/conf.yml"
	EnvConfigPath        = "BATTLE_CONFIG"
)

// Resolve picks the config file path. An explicit name wins, then the
// BATTLE_CONFIG environment variable, then the first configs/conf.yml found
// walking up from the working directory.
func Resolve(cfgName string) (string, error) {
	if cfgName == "" {
		cfgName = os.Getenv(EnvConfigPath)
	}
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if cfgName != "" {
		if filepath.IsAbs(cfgName) {
			return cfgName, nil
		}
		return filepath.Join(curDir, cfgName), nil
	}
	return findConfigUpward(curDir)
}

func findConfigUpward(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, DefaultConfigRelPath)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config file not exist, searched %s from: %s", DefaultConfigRelPath, startDir)
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
