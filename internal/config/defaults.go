package config

import (
	"path/filepath"
	"time"

	"github.com/renato0307/kboard/internal/kubeconfig"
)

const (
	DefaultSelector         = "default"
	DefaultTheme            = "charm"
	DefaultTimeout          = 15 * time.Second
	DefaultQPS              = 50
	DefaultBurst            = 100
	DefaultHotspotThreshold = 80.0
)

// Default returns the built-in configuration rooted at home
func Default(home string) Config {
	return Config{
		Kubeconfig: KubeconfigConfig{
			StorageDir: filepath.Join(home, kubeconfig.DefaultDirName),
			Initial:    DefaultSelector,
		},
		Client: ClientConfig{
			Timeout:          DefaultTimeout,
			QPS:              DefaultQPS,
			Burst:            DefaultBurst,
			VerifyConnection: true,
		},
		UI: UIConfig{
			Theme:            DefaultTheme,
			HotspotThreshold: DefaultHotspotThreshold,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
