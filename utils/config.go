package utils

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/noelzubin/quick_nav/logging"
	"github.com/noelzubin/quick_nav/navigation"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Config is the cofiguration for the application
type Config struct {
	APIRoot          string               `mapstructure:"api_root"`             // WordPress REST root, e.g. https://example.com/wp-json/
	AdminURL         string               `mapstructure:"admin_url"`            // admin url used to resolve relative page links
	PageSource       string               `mapstructure:"page_source"`          // admin page to scrape links from, file or url
	PluginVersion    string               `mapstructure:"plugin_version"`       // version of the server plugin
	ContentDbVersion string               `mapstructure:"content_db_version"`   // when the content index was generated
	Nonce            string               `mapstructure:"nonce"`                // REST nonce
	Username         string               `mapstructure:"username"`             // application password user
	AppPassword      string               `mapstructure:"app_password"`         // application password
	Shortcuts        navigation.Shortcuts `mapstructure:"shortcuts"`            // key for each shortcut
	ResultsLimit     int                  `mapstructure:"search-results-limit"` // max results shown
	Engine           string               `mapstructure:"engine"`               // substring, fuzzy or bleve
	Browser          string               `mapstructure:"browser"`              // command that opens urls
	CachePath        string               `mapstructure:"cache_path"`           // content index cache file, "off" disables caching
	Log              logging.Config       `mapstructure:"log"`
}

// Engines that can be configured.
var Engines = []string{"substring", "fuzzy", "bleve"}

// DefaultConfigPath returns where the config file lives.
func DefaultConfigPath() string {
	homedir, _ := os.UserHomeDir()
	return path.Join(homedir, "/.config/quick_nav/config.yaml")
}

// returns where the content index cache is stored on disk.
func defaultCachePath() string {
	dir, _ := os.UserCacheDir()
	return path.Join(dir, "/quick_nav/content_index.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("shortcuts", map[string]any{
		navigation.OpenInterface:  map[string]any{"code": "`"},
		navigation.CloseInterface: map[string]any{"code": "esc"},
		navigation.OpenLink:       map[string]any{"code": "enter"},
		navigation.NextLink:       map[string]any{"code": "down"},
		navigation.PreviousLink:   map[string]any{"code": "up"},
	})
	for _, key := range []string{"api_root", "admin_url", "page_source", "plugin_version",
		"content_db_version", "nonce", "username", "app_password", "log.dir"} {
		v.SetDefault(key, "")
	}
	v.SetDefault("search-results-limit", 10)
	v.SetDefault("engine", "substring")
	v.SetDefault("browser", "xdg-open")
	v.SetDefault("cache_path", defaultCachePath())
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// NewConfig returns a new Config object by reading from the config file.
// Values can be overridden with QNI_ environment variables, e.g. QNI_NONCE.
func NewConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix("qni")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to parse the config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the values the app can't run without.
func (c *Config) Validate() error {
	var errs []error

	if c.APIRoot == "" {
		errs = append(errs, errors.New("api_root is required"))
	} else if !strings.HasSuffix(c.APIRoot, "/") {
		c.APIRoot += "/"
	}
	if c.ResultsLimit < 1 {
		errs = append(errs, fmt.Errorf("search-results-limit must be positive, got %d", c.ResultsLimit))
	}
	if !lo.Contains(Engines, c.Engine) {
		errs = append(errs, fmt.Errorf("unknown engine %q", c.Engine))
	}

	return errors.Join(errs...)
}

// Options returns what the navigation controller needs.
func (c *Config) Options() navigation.Options {
	return navigation.Options{Shortcuts: c.Shortcuts, SearchResultsLimit: c.ResultsLimit}
}

// CacheEnabled reports whether the content index should be cached.
func (c *Config) CacheEnabled() bool {
	return c.CachePath != "" && c.CachePath != "off"
}
