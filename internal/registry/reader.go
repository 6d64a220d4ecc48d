package registry

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const defaultEvaluator = "nix-env"

// Source produces the raw registry JSON.
type Source interface {
	Read() ([]byte, error)
	// Describe names the source for logs and index metadata.
	Describe() string
}

// Options selects a registry source. Nixpkgs takes precedence over a bare
// CachePath; with both set the evaluator output is also cached.
type Options struct {
	Nixpkgs   string
	Config    string
	CachePath string
	Evaluator string
}

// NewSource picks the source described by opts.
func NewSource(opts Options) (Source, error) {
	switch {
	case opts.Nixpkgs != "":
		return &EvaluatorSource{
			Command:   opts.Evaluator,
			Nixpkgs:   opts.Nixpkgs,
			Config:    opts.Config,
			CachePath: opts.CachePath,
		}, nil
	case opts.CachePath != "":
		return &CacheSource{Path: opts.CachePath}, nil
	default:
		return nil, ErrMissingSource
	}
}

// EvaluatorSource runs nix-env against a nixpkgs location.
type EvaluatorSource struct {
	Command   string
	Nixpkgs   string
	Config    string
	CachePath string
}

func (s *EvaluatorSource) command() string {
	if s.Command == "" {
		return defaultEvaluator
	}
	return s.Command
}

// Args returns the evaluator arguments.
func (s *EvaluatorSource) Args() []string {
	args := []string{
		"--json",
		"-f", "<nixpkgs>",
		"-I", "nixpkgs=" + s.Nixpkgs,
		"-qa",
		"--meta",
		"--out-path",
	}
	if s.Config != "" {
		args = append(args, "--arg", "config", s.Config)
	}
	return args
}

func (s *EvaluatorSource) Describe() string {
	return "nixpkgs=" + s.Nixpkgs
}

func (s *EvaluatorSource) Read() ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(s.command(), s.Args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &EvaluatorError{
				Command:  s.command(),
				ExitCode: exitErr.ExitCode(),
				Stderr:   stderr.String(),
			}
		}
		return nil, fmt.Errorf("%w: run %s: %w", ErrEvaluator, s.command(), err)
	}

	out := stdout.Bytes()
	if s.CachePath != "" {
		if err := os.WriteFile(s.CachePath, out, 0o644); err != nil {
			return nil, fmt.Errorf("write registry cache %s: %w", s.CachePath, err)
		}
	}
	return out, nil
}

// CacheSource reads a registry dump saved by an earlier evaluation.
type CacheSource struct {
	Path string
}

func (s *CacheSource) Describe() string {
	return s.Path
}

func (s *CacheSource) Read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read registry cache: %w", err)
	}
	return data, nil
}

// Parse decodes a registry document. The whole document must decode.
func Parse(data []byte) (Registry, error) {
	var reg Registry
	if err := sonic.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRegistryParse, err)
	}
	if reg == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrRegistryParse)
	}
	return reg, nil
}

// Load reads and parses the registry from src.
func Load(src Source, log *zap.Logger) (Registry, error) {
	if log == nil {
		log = zap.NewNop()
	}

	start := time.Now()
	data, err := src.Read()
	if err != nil {
		return nil, err
	}
	log.Info("read registry",
		zap.String("source", src.Describe()),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)),
	)

	start = time.Now()
	reg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	log.Info("parsed registry",
		zap.Int("entries", len(reg)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return reg, nil
}
