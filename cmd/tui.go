package cmd

import (
	"nixdex/internal/query"
	"nixdex/internal/tui"
)

func runTUI() error {
	return tui.Run(tuiConfig())
}

func tuiConfig() tui.Config {
	return tui.Config{
		IndexPath:   cfg.Index,
		Source:      registryOptions(),
		Presence:    query.OSPresence(cfg.StoreDir),
		Limit:       cfg.NumResults,
		FilterBuilt: cfg.FilterBuilt,
		Logger:      logger.Logger,
	}
}
