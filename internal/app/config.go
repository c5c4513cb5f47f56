package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete client configuration, loadable from environment
// variables (STOREFRONT_ prefix) or YAML config files. Command-line flags
// are left to the subcommand parsers.
type Config struct {
	APIBaseURL    string        `default:"" usage:"Backend API base URL, e.g. https://api.shop.example"`
	Timeout       time.Duration `default:"15s" usage:"HTTP request timeout"`
	RefreshLeeway time.Duration `default:"30s" usage:"Refresh the access token when it expires within this window"`
	StatePath     string        `default:"" usage:"Path of the local state file"`
	LogRequests   bool          `default:"false" usage:"Log every outbound HTTP request"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then fills in platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		SkipFlags: true,
		Files:     []string{"storefront.yaml", configFile("config.yaml")},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.APIBaseURL == "" {
		if v := os.Getenv("API_BASE_URL"); v != "" {
			cfg.APIBaseURL = v
		}
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("backend URL is required: set STOREFRONT_APIBASEURL or API_BASE_URL")
	}
	if cfg.StatePath == "" {
		cfg.StatePath = configFile("state.json")
	}

	return &cfg, nil
}

// configFile resolves name inside the user's storefront config directory.
func configFile(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "storefront", name)
}
