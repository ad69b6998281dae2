package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/clients"
	"github.com/vadiminshakov/easysteem/internal/services/pricer"
)

// TokenEnv overrides access_token when set.
const TokenEnv = "STEEMCONNECT_TOKEN"

const (
	defaultAppName         = "easysteem"
	defaultAppVersion      = "1.0.0"
	defaultNativeSymbol    = "STEEM"
	defaultStableSymbol    = "SBD"
	defaultFetchTimeout    = 10 * time.Second
	defaultRPCRateLimit    = 10
	defaultRPCRetries      = 2
	defaultListenAddr      = ":8080"
	defaultLogLevel        = "info"
	defaultRefreshInterval = time.Minute
)

type Config struct {
	NodeURL         string
	SteemConnectURL string
	// AppID is the SteemConnect client id.
	AppID      string
	AppName    string
	AppVersion string
	Account    string
	// AccessToken is the SteemConnect token used for broadcasting.
	AccessToken  string
	NativeSymbol string
	StableSymbol string
	// PriceSources maps a currency symbol to the quote source used for it.
	// Symbols without an entry use cryptocompare.
	PriceSources    map[string]pricer.Source
	RefreshPolicy   chainprops.RefreshPolicy
	StaleOnError    bool
	FetchTimeout    time.Duration
	RPCRateLimit    float64
	RPCRetries      int
	WALDir          string
	ListenAddr      string
	LogLevel        string
	RefreshInterval time.Duration
}

// ConfigTmp is the on-disk representation of Config.
type ConfigTmp struct {
	NodeURL         string            `yaml:"node_url,omitempty"`
	SteemConnectURL string            `yaml:"steemconnect_url,omitempty"`
	AppID           string            `yaml:"app_id,omitempty"`
	AppName         string            `yaml:"app_name,omitempty"`
	AppVersion      string            `yaml:"app_version,omitempty"`
	Account         string            `yaml:"account,omitempty"`
	AccessToken     string            `yaml:"access_token,omitempty"`
	NativeSymbol    string            `yaml:"native_symbol,omitempty"`
	StableSymbol    string            `yaml:"stable_symbol,omitempty"`
	PriceSources    map[string]string `yaml:"price_sources,omitempty"`
	RefreshPolicy   string            `yaml:"refresh_policy,omitempty"`
	MaxAge          time.Duration     `yaml:"max_age,omitempty"`
	StaleOnErrorStr string            `yaml:"stale_on_error,omitempty"`
	FetchTimeout    time.Duration     `yaml:"fetch_timeout,omitempty"`
	RPCRateLimitStr string            `yaml:"rpc_rate_limit,omitempty"`
	RPCRetriesStr   string            `yaml:"rpc_retries,omitempty"`
	WALDir          string            `yaml:"wal_dir,omitempty"`
	ListenAddr      string            `yaml:"listen_addr,omitempty"`
	LogLevel        string            `yaml:"log_level,omitempty"`
	RefreshInterval time.Duration     `yaml:"refresh_interval,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		NodeURL:         clients.DefaultSteemNode,
		SteemConnectURL: clients.DefaultSteemConnectURL,
		AppName:         defaultAppName,
		AppVersion:      defaultAppVersion,
		NativeSymbol:    defaultNativeSymbol,
		StableSymbol:    defaultStableSymbol,
		PriceSources:    map[string]pricer.Source{},
		RefreshPolicy:   chainprops.DefaultPolicy(),
		FetchTimeout:    defaultFetchTimeout,
		RPCRateLimit:    defaultRPCRateLimit,
		RPCRetries:      defaultRPCRetries,
		ListenAddr:      defaultListenAddr,
		LogLevel:        defaultLogLevel,
		RefreshInterval: defaultRefreshInterval,
		AccessToken:     os.Getenv(TokenEnv),
	}
}

// Load reads a yaml config file. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse yaml config %s", path)
	}
	return tmp.Config()
}

// Config validates tmp and fills in defaults.
func (c ConfigTmp) Config() (Config, error) {
	conf := Default()

	setString(&conf.NodeURL, c.NodeURL)
	setString(&conf.SteemConnectURL, c.SteemConnectURL)
	setString(&conf.AppID, c.AppID)
	setString(&conf.AppName, c.AppName)
	setString(&conf.AppVersion, c.AppVersion)
	setString(&conf.Account, c.Account)
	setString(&conf.NativeSymbol, strings.ToUpper(c.NativeSymbol))
	setString(&conf.StableSymbol, strings.ToUpper(c.StableSymbol))
	setString(&conf.WALDir, c.WALDir)
	setString(&conf.ListenAddr, c.ListenAddr)
	setString(&conf.LogLevel, strings.ToLower(c.LogLevel))
	if conf.AccessToken == "" {
		conf.AccessToken = c.AccessToken
	}

	for symbol, raw := range c.PriceSources {
		source, err := pricer.ParseSource(raw)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'price_sources' param in yaml config for %s: %w", symbol, err)
		}
		conf.PriceSources[strings.ToUpper(symbol)] = source
	}

	mode, err := chainprops.ParseRefreshMode(c.RefreshPolicy)
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'refresh_policy' param in yaml config (always|if_empty|if_stale|never), error: %w", err)
	}
	conf.RefreshPolicy.Mode = mode
	if c.MaxAge < 0 {
		return Config{}, fmt.Errorf("incorrect 'max_age' param in yaml config: must not be negative")
	}
	if c.MaxAge > 0 {
		conf.RefreshPolicy.MaxAge = c.MaxAge
	}

	if c.StaleOnErrorStr != "" {
		staleOnError, err := strconv.ParseBool(c.StaleOnErrorStr)
		if err != nil {
			return Config{}, fmt.Errorf("incorrect 'stale_on_error' param in yaml config (must be true or false), error: %w", err)
		}
		conf.StaleOnError = staleOnError
	}

	if c.FetchTimeout < 0 {
		return Config{}, fmt.Errorf("incorrect 'fetch_timeout' param in yaml config: must not be negative")
	}
	if c.FetchTimeout > 0 {
		conf.FetchTimeout = c.FetchTimeout
	}

	if c.RPCRateLimitStr != "" {
		limit, err := strconv.ParseFloat(c.RPCRateLimitStr, 64)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("incorrect 'rpc_rate_limit' param in yaml config (must be a positive number): %s", c.RPCRateLimitStr)
		}
		conf.RPCRateLimit = limit
	}

	if c.RPCRetriesStr != "" {
		retries, err := strconv.Atoi(c.RPCRetriesStr)
		if err != nil || retries < 0 {
			return Config{}, fmt.Errorf("incorrect 'rpc_retries' param in yaml config (must be a non-negative integer): %s", c.RPCRetriesStr)
		}
		conf.RPCRetries = retries
	}

	if c.RefreshInterval < 0 {
		return Config{}, fmt.Errorf("incorrect 'refresh_interval' param in yaml config: must not be negative")
	}
	if c.RefreshInterval > 0 {
		conf.RefreshInterval = c.RefreshInterval
	}

	switch conf.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("incorrect 'log_level' param in yaml config (debug|info|warn|error): %s", conf.LogLevel)
	}

	return conf, nil
}

// Tmp converts conf back to its on-disk representation.
func (conf Config) Tmp() ConfigTmp {
	sources := make(map[string]string, len(conf.PriceSources))
	for symbol, source := range conf.PriceSources {
		sources[symbol] = string(source)
	}
	var rpcRateLimit, rpcRetries string
	if conf.RPCRateLimit > 0 {
		rpcRateLimit = strconv.FormatFloat(conf.RPCRateLimit, 'f', -1, 64)
	}
	if conf.RPCRetries >= 0 {
		rpcRetries = strconv.Itoa(conf.RPCRetries)
	}
	return ConfigTmp{
		NodeURL:         conf.NodeURL,
		SteemConnectURL: conf.SteemConnectURL,
		AppID:           conf.AppID,
		AppName:         conf.AppName,
		AppVersion:      conf.AppVersion,
		Account:         conf.Account,
		NativeSymbol:    conf.NativeSymbol,
		StableSymbol:    conf.StableSymbol,
		PriceSources:    sources,
		RefreshPolicy:   conf.RefreshPolicy.Mode.String(),
		MaxAge:          conf.RefreshPolicy.MaxAge,
		StaleOnErrorStr: strconv.FormatBool(conf.StaleOnError),
		FetchTimeout:    conf.FetchTimeout,
		RPCRateLimitStr: rpcRateLimit,
		RPCRetriesStr:   rpcRetries,
		WALDir:          conf.WALDir,
		ListenAddr:      conf.ListenAddr,
		LogLevel:        conf.LogLevel,
		RefreshInterval: conf.RefreshInterval,
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
