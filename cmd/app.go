package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vadiminshakov/easysteem/config"
	"github.com/vadiminshakov/easysteem/internal"
	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/clients"
	"github.com/vadiminshakov/easysteem/internal/observability"
	"github.com/vadiminshakov/easysteem/internal/services/pricer"
	"github.com/vadiminshakov/easysteem/internal/storage/propsnapshots"
)

// app is everything a command needs, built from the config.
type app struct {
	conf         config.Config
	logger       *zap.Logger
	steem        *clients.SteemClient
	steemConnect *clients.SteemConnect
	client       *internal.Client
	store        *propsnapshots.WALStore
	metrics      *observability.Metrics
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func newPricer(conf config.Config) pricer.Pricer {
	fallback := pricer.NewCryptoComparePricer(pricer.DefaultCryptoCompareURL)
	routes := make(map[string]pricer.Pricer, len(conf.PriceSources))
	for symbol, source := range conf.PriceSources {
		switch source {
		case pricer.SourceBinance:
			routes[symbol] = pricer.NewBinancePricer(clients.NewBinanceClient(os.Getenv("BINANCE_API_KEY"), os.Getenv("BINANCE_API_SECRET")))
		case pricer.SourceBybit:
			routes[symbol] = pricer.NewBybitPricer(clients.NewBybitClient(os.Getenv("BYBIT_API_KEY"), os.Getenv("BYBIT_API_SECRET")))
		default:
			routes[symbol] = fallback
		}
	}
	return pricer.NewRoutedPricer(fallback, routes)
}

// newApp wires the client. withMetrics registers prometheus collectors,
// which only the server exposes.
func newApp(conf config.Config, withMetrics bool) (*app, error) {
	logger, err := newLogger(conf.LogLevel)
	if err != nil {
		return nil, err
	}

	a := &app{conf: conf, logger: logger}

	a.steem = clients.NewSteemClient(conf.NodeURL,
		clients.WithRateLimit(conf.RPCRateLimit, int(conf.RPCRateLimit)+1),
		clients.WithRetries(conf.RPCRetries),
		clients.WithRPCTimeout(conf.FetchTimeout),
		clients.WithSteemLogger(logger.Named("steem")),
	)

	cacheOpts := []chainprops.Option{
		chainprops.WithSymbols(conf.NativeSymbol, conf.StableSymbol),
		chainprops.WithFetchTimeout(conf.FetchTimeout),
		chainprops.WithStaleOnError(conf.StaleOnError),
		chainprops.WithLogger(logger.Named("chainprops")),
	}

	if conf.WALDir != "" {
		if a.store, err = propsnapshots.NewWALStore(conf.WALDir); err != nil {
			return nil, err
		}
		cacheOpts = append(cacheOpts, chainprops.WithStore(a.store))
	}

	if withMetrics {
		a.metrics = observability.NewMetrics("", prometheus.NewRegistry())
		cacheOpts = append(cacheOpts, chainprops.WithRecorder(a.metrics))
	}

	cache := chainprops.New(a.steem, newPricer(conf), cacheOpts...)
	if err := cache.Restore(); err != nil {
		logger.Warn("could not restore chain properties", zap.Error(err))
	}

	a.steemConnect = clients.NewSteemConnect(conf.SteemConnectURL, conf.AppID, logger.Named("steemconnect"))
	a.steemConnect.SetAccessToken(conf.AccessToken)

	a.client = internal.NewClient(cache, a.steem,
		internal.WithAccount(conf.Account),
		internal.WithApp(conf.AppName, conf.AppVersion),
		internal.WithDefaultPolicy(conf.RefreshPolicy),
		internal.WithBroadcaster(a.steemConnect),
		internal.WithClientLogger(logger),
	)
	return a, nil
}

func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close chain properties store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
