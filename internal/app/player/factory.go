package player

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playbar/internal/app/catalog"
	"github.com/osa030/playbar/internal/app/filter"
	"github.com/osa030/playbar/internal/app/playback"
	"github.com/osa030/playbar/internal/infra/catalogfile"
	"github.com/osa030/playbar/internal/infra/config"
	"github.com/osa030/playbar/internal/infra/simdevice"
)

// NewDeviceFromConfig creates the transport device named in the configuration.
func NewDeviceFromConfig(cfg *config.Config) (playback.Device, error) {
	zlog.Debug().Msgf("creating device: type=%s settings=%+v", cfg.Device.Type, cfg.Device.Settings)

	switch cfg.Device.Type {
	case "simulated":
		settings, err := simdevice.ParseSettings(cfg.Device.Settings)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create device (type %s)", cfg.Device.Type)
		}
		zlog.Info().Msgf("device ready: type=%s tick=%dms latency=%dms speed=%.2f",
			cfg.Device.Type, settings.TickIntervalMs, settings.LoadLatencyMs, settings.Speed)
		return simdevice.New(settings), nil

	default:
		return nil, errors.Newf("unsupported device type: %s", cfg.Device.Type)
	}
}

// NewStoreFromConfig loads the configured catalog, or the built-in one.
func NewStoreFromConfig(cfg *config.Config) (*catalog.Store, error) {
	var (
		data catalog.Data
		err  error
	)
	if cfg.Catalog.Path == "" {
		data, err = catalogfile.LoadSeed()
	} else {
		data, err = catalogfile.Load(cfg.Catalog.Path)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	return catalog.NewStore(data), nil
}

// NewFilterChainFromConfig builds the chain of enabled browse filters in name order.
// Filters with invalid settings are logged and skipped.
func NewFilterChainFromConfig(cfg *config.Config) *filter.Chain {
	chain := filter.NewChain()

	registered := filter.GetRegistered()
	for name, fc := range cfg.Filters {
		if _, ok := registered[name]; !ok && fc.Enabled {
			zlog.Warn().Msgf("unknown filter in config: name=%s", name)
		}
	}

	for _, name := range filter.Names() {
		if !cfg.IsFilterEnabled(name) {
			continue
		}
		f, err := filter.New(name, cfg.GetFilterSettings(name))
		if err != nil {
			zlog.Error().Msgf("failed to validate filter config: name=%s error=%v", name, err)
			continue
		}
		chain.Add(f)
		zlog.Info().Msgf("registered filter: name=%s", name)
	}
	return chain
}
