package index

import (
	"strconv"
	"time"

	"go.uber.org/zap"

	"nixdex/internal/registry"
	"nixdex/internal/store"
)

// Stats reports build results.
type Stats struct {
	Total    int
	Indexed  int
	Skipped  int
	Broken   int
	Insecure int
	Unfree   int
	Elapsed  time.Duration
}

const (
	PhaseEvaluate  = "Evaluating registry..."
	PhaseNormalize = "Normalizing packages..."
	PhaseWrite     = "Writing index..."
)

func runPipeline(
	src registry.Source,
	staging string,
	log *zap.Logger,
	onProgress ProgressFunc,
) (*Stats, error) {
	progress := func(phase string, done, total int) {
		if onProgress != nil {
			onProgress(phase, done, total)
		}
	}

	// Stage 1: Evaluate or read the cached registry.
	progress(PhaseEvaluate, 0, 0)
	reg, err := registry.Load(src, log)
	if err != nil {
		return nil, err
	}

	// Stage 2: Normalize.
	progress(PhaseNormalize, 0, len(reg))
	pkgs, skipped := registry.NormalizeAll(reg)
	flags := registry.CountFlags(reg)
	stats := &Stats{
		Total:    len(reg),
		Skipped:  skipped,
		Broken:   flags.Broken,
		Insecure: flags.Insecure,
		Unfree:   flags.Unfree,
	}
	progress(PhaseNormalize, len(reg), len(reg))

	// Stage 3: Write a fresh file next to the live index.
	progress(PhaseWrite, 0, len(pkgs))
	if err := store.Remove(staging); err != nil {
		return stats, err
	}
	w, err := store.Create(staging, log)
	if err != nil {
		return stats, err
	}

	meta := map[string]string{
		store.MetaBuiltAt:      time.Now().UTC().Format(time.RFC3339),
		store.MetaSource:       src.Describe(),
		store.MetaPackageCount: strconv.Itoa(len(pkgs)),
	}
	buildErr := w.Build(pkgs, meta)
	closeErr := w.Close()
	if buildErr == nil {
		buildErr = closeErr
	}
	if buildErr != nil {
		if err := store.Remove(staging); err != nil {
			log.Warn("remove staging index", zap.String("path", staging), zap.Error(err))
		}
		return stats, buildErr
	}

	stats.Indexed = len(pkgs)
	progress(PhaseWrite, len(pkgs), len(pkgs))
	return stats, nil
}
