package cli

import (
	"fmt"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/notify"
	"github.com/autobear/autobear/internal/registry"
	"github.com/autobear/autobear/internal/sops"
	"github.com/autobear/autobear/pkg/version"
)

// loadRegistry opens the script registry from the configured path and logs
// any entry warnings it collected.
func loadRegistry(cfg *config.Config) (*registry.Registry, error) {
	reg, err := registry.Load(cfg.Scripts.Registry, version.GetVersion())
	if err != nil {
		return nil, fmt.Errorf("loading script registry: %w", err)
	}
	for _, warning := range reg.Warnings {
		logger.Warn().Str("registry", cfg.Scripts.Registry).Msg(warning)
	}
	return reg, nil
}

// historyStore opens the execution history store at the configured location.
func historyStore(cfg *config.Config) *history.Store {
	return history.NewStoreWithLogger(cfg.History.Dir, cfg.History.MaxRuns, logger)
}

// sopCatalog opens the SOP catalog at the configured location.
func sopCatalog(cfg *config.Config) *sops.Catalog {
	return sops.NewCatalogWithLogger(cfg.SOPs.Path, logger)
}

// settingsStore opens the per-script settings store.
func settingsStore(cfg *config.Config) *registry.SettingsStore {
	return registry.NewSettingsStore(cfg.SettingsDir())
}

// notifySettings maps the notifications config section to notify settings.
func notifySettings(cfg *config.Config) notify.Settings {
	return notify.Settings{
		Enabled:         cfg.Notifications.Enabled,
		Silent:          cfg.Notifications.Silent,
		DurationSeconds: cfg.Notifications.DurationSeconds,
		OnStart:         cfg.Notifications.OnStart,
		OnSuccess:       cfg.Notifications.OnSuccess,
		OnError:         cfg.Notifications.OnError,
		OnStopped:       cfg.Notifications.OnStopped,
	}
}
