package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/esimov/markup"
	"github.com/esimov/markup/redact"
	"github.com/esimov/markup/utils"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// Config holds the settings shared by every command. It is read from the
// file given by the -config flag; command flags take precedence.
type Config struct {
	// AssetURL is prepended to the asset paths of a gallery listing.
	AssetURL  string           `yaml:"assetURL"`
	Thumbnail markup.Thumbnail `yaml:"thumbnail"`
	Workers   int              `yaml:"workers"`
	Timeout   time.Duration    `yaml:"timeout"`
	Cascade   string           `yaml:"cascade"`
	Detector  redact.Options   `yaml:"detector"`
}

func defaultConfig() Config {
	return Config{
		Thumbnail: markup.DefaultThumbnail,
		Workers:   utils.Clamp(runtime.NumCPU(), 1, maxWorkers),
		Timeout:   30 * time.Second,
		Detector:  redact.DefaultOptions,
	}
}

// loadConfig returns the default configuration overridden by the YAML file
// at path. An empty path yields the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read the config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	// Limit the concurrently running workers to maxWorkers.
	if cfg.Workers <= 0 || cfg.Workers > maxWorkers {
		cfg.Workers = utils.Clamp(runtime.NumCPU(), 1, maxWorkers)
	}
	return cfg, nil
}
