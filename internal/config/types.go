package config

import "time"

// Config is the complete kboard configuration
type Config struct {
	Kubeconfig KubeconfigConfig `yaml:"kubeconfig"`
	Client     ClientConfig     `yaml:"client"`
	UI         UIConfig         `yaml:"ui"`
	Log        LogConfig        `yaml:"log"`
}

// KubeconfigConfig controls where imported kubeconfigs live and which one
// is selected at startup
type KubeconfigConfig struct {
	// StorageDir holds imported kubeconfig files and the registry index
	StorageDir string `yaml:"storageDir"`
	// Initial is the selector used at startup: "default", a registered name
	// or a path
	Initial string `yaml:"initial"`
}

// ClientConfig tunes the REST clients
type ClientConfig struct {
	Timeout          time.Duration `yaml:"timeout"`
	QPS              float32       `yaml:"qps"`
	Burst            int           `yaml:"burst"`
	VerifyConnection bool          `yaml:"verifyConnection"`
}

// UIConfig controls the dashboard
type UIConfig struct {
	Theme string `yaml:"theme"`
	// Namespace limits the workload list; empty lists all namespaces
	Namespace string `yaml:"namespace"`
	// HotspotThreshold is the request percentage that flags a node
	HotspotThreshold float64 `yaml:"hotspotThreshold"`
}

// LogConfig controls the log file. An empty File disables logging.
type LogConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
}
