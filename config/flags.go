package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Flags holds command line overrides of the config file.
type Flags struct {
	Path          string
	NodeURL       string
	Account       string
	RefreshPolicy string
	FetchTimeout  time.Duration
	LogLevel      string
}

// Register adds the override flags to fs.
func (f *Flags) Register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.Path, "config", "c", "", "path to yaml config")
	fs.StringVar(&f.NodeURL, "node", "", "steem node url")
	fs.StringVarP(&f.Account, "account", "a", "", "account used for posting")
	fs.StringVar(&f.RefreshPolicy, "refresh", "", "chain properties refresh policy: always, if_empty, if_stale or never")
	fs.DurationVar(&f.FetchTimeout, "fetch-timeout", 0, "timeout of a single chain properties fetch")
	fs.StringVar(&f.LogLevel, "log-level", "", "debug, info, warn or error")
}

// Load reads the config file named by --config and applies the overrides.
func (f *Flags) Load() (Config, error) {
	var tmp ConfigTmp
	if f.Path != "" {
		conf, err := Load(f.Path)
		if err != nil {
			return Config{}, err
		}
		tmp = conf.Tmp()
		tmp.AccessToken = conf.AccessToken
	}

	setString(&tmp.NodeURL, f.NodeURL)
	setString(&tmp.Account, f.Account)
	setString(&tmp.RefreshPolicy, f.RefreshPolicy)
	setString(&tmp.LogLevel, f.LogLevel)
	if f.FetchTimeout != 0 {
		tmp.FetchTimeout = f.FetchTimeout
	}

	conf, err := tmp.Config()
	if err != nil {
		return Config{}, fmt.Errorf("invalid flags: %w", err)
	}
	return conf, nil
}
