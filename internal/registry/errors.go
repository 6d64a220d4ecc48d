package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSource means neither a nixpkgs location nor a cached registry was given.
	ErrMissingSource = errors.New("expected nixpkgs location or cached registry")

	// ErrEvaluator matches any *EvaluatorError.
	ErrEvaluator = errors.New("registry evaluation failed")

	// ErrRegistryParse means the registry JSON was malformed or had an unexpected shape.
	ErrRegistryParse = errors.New("unable to read registry JSON")
)

// EvaluatorError is returned when the evaluator exits non-zero. Stderr holds
// its captured diagnostic output verbatim.
type EvaluatorError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *EvaluatorError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("%s failed with exit code %d", e.Command, e.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Command, e.ExitCode, msg)
}

func (e *EvaluatorError) Is(target error) bool {
	return target == ErrEvaluator
}
