package index

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"nixdex/internal/registry"
)

// ErrIndexLocked means another build holds the lock for the same output.
var ErrIndexLocked = errors.New("index build already in progress")

// ProgressFunc receives phase updates during a build.
type ProgressFunc func(phase string, done, total int)

// Config holds the indexer configuration.
type Config struct {
	Output     string
	Logger     *zap.Logger
	OnProgress ProgressFunc
}

// Indexer builds the package index at Config.Output.
type Indexer struct {
	config Config
	log    *zap.Logger
}

// New creates a new Indexer with the given configuration.
func New(cfg Config) (*Indexer, error) {
	if cfg.Output == "" {
		return nil, errors.New("index output path is required")
	}
	output, err := filepath.Abs(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	cfg.Output = output

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Indexer{config: cfg, log: log.Named("index")}, nil
}

// Output is the path of the index file.
func (idx *Indexer) Output() string {
	return idx.config.Output
}

func (idx *Indexer) lockPath() string    { return idx.config.Output + ".lock" }
func (idx *Indexer) stagingPath() string { return idx.config.Output + ".building" }

// Build evaluates src and replaces the index with a fresh snapshot. The
// existing index stays in place until the new one is fully written.
func (idx *Indexer) Build(src registry.Source) (*Stats, error) {
	if err := os.MkdirAll(filepath.Dir(idx.config.Output), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	lock := flock.New(idx.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", idx.lockPath(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrIndexLocked, idx.lockPath())
	}
	defer lock.Unlock()

	start := time.Now()
	stats, err := runPipeline(src, idx.stagingPath(), idx.log, idx.config.OnProgress)
	if err != nil {
		return stats, err
	}

	if err := os.Rename(idx.stagingPath(), idx.config.Output); err != nil {
		return stats, fmt.Errorf("replace index: %w", err)
	}
	stats.Elapsed = time.Since(start)

	idx.log.Info("index built",
		zap.String("output", idx.config.Output),
		zap.Int("total", stats.Total),
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped),
		zap.Duration("elapsed", stats.Elapsed),
	)
	return stats, nil
}
