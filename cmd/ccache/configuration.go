package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Configuration struct {
	CacheDir    string
	LogFileName string
	LogLevel    int
	MaxFiles    int64
	MaxSizeKb   int64
}

// ParseConfiguration reads /etc/ccache.conf and then the per-user file on top
// of the defaults. A missing file is not an error: most installations run on
// defaults plus environment variables.
func ParseConfiguration() (*Configuration, error) {
	config := Configuration{
		CacheDir:    defaultCacheDir(),
		LogFileName: "",
		LogLevel:    0,
	}

	configFiles := []string{"/etc/ccache.conf"}
	if home, err := os.UserHomeDir(); err == nil {
		configFiles = append(configFiles, filepath.Join(home, ".ccache.conf"))
	}

	for _, filePath := range configFiles {
		if _, err := toml.DecodeFile(filePath, &config); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return &config, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	return filepath.Join(home, ".ccache")
}
