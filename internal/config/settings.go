package config

import (
	_ "embed"
	"encoding/json"
	"os"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Config holds the tool defaults. Flags override whatever is loaded here.
type Config struct {
	Query struct {
		DataFile  string `json:"data_file"`
		ChunkSize int    `json:"chunk_size"`
		Workers   int    `json:"workers"`
	} `json:"query"`

	Export struct {
		OutputFormat string `json:"output_format"`
	} `json:"export"`

	Whois struct {
		ChunkSize int `json:"chunk_size"`
	} `json:"whois"`

	Tcping struct {
		Attempts     int   `json:"attempts"`
		TimeoutMs    int   `json:"timeout_ms"`
		IntervalMs   int   `json:"interval_ms"`
		Workers      int   `json:"workers"`
		DefaultPorts []int `json:"default_ports"`
	} `json:"tcping"`
}

const settingsFilePath = "data/settings.json"

var (
	//go:embed default_settings.json
	defaultConfig []byte

	configValue atomic.Value
)

func init() {
	var cfg Config
	if err := json.Unmarshal(defaultConfig, &cfg); err != nil {
		panic("config: embedded default settings are malformed: " + err.Error())
	}
	configValue.Store(cfg)
}

// ReadSettings loads the settings file, creating it with the embedded
// defaults when missing. A malformed file is reported and the defaults stay
// in effect; a batch run should not die over a settings typo.
func ReadSettings() {
	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Settings file not found, creating with default configuration")

			if err := os.MkdirAll("data", os.ModePerm); err != nil {
				log.Error("Error creating directory for settings file:", "error", err)
				return
			}
			if err := os.WriteFile(settingsFilePath, defaultConfig, os.ModePerm); err != nil {
				log.Error("Error writing default settings file:", "error", err)
				return
			}
			data = defaultConfig
		} else {
			log.Error("Error reading settings file:", "error", err)
			return
		}
	}

	var newConfig Config
	if err := json.Unmarshal(data, &newConfig); err != nil {
		log.Error("Error unmarshalling settings file:", "error", err)
		return
	}

	configValue.Store(newConfig)
	log.Debug("Settings file loaded successfully")
}

// GetConfig returns the current configuration snapshot.
func GetConfig() Config {
	return configValue.Load().(Config)
}

// SetConfig replaces the current configuration. Exposed for tests.
func SetConfig(cfg Config) {
	configValue.Store(cfg)
}
