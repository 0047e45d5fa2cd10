// Package params collects a single bounded integer from the user before an
// operation that needs one is dispatched.
package params

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	ErrCancelled   = errors.New("parameter entry cancelled")
	ErrNoPrompt    = errors.New("no parameter prompt is open")
	ErrPromptBusy  = errors.New("a parameter prompt is already open")
	ErrInvalidSpan = errors.New("minimum is greater than maximum")
)

// ValidationError reports input that is not an integer within [Min, Max].
// It is recovered inside Collect and never leaves this package as a failure.
type ValidationError struct {
	Input string
	Min   int
	Max   int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Please enter a value between %d and %d", e.Min, e.Max)
}

// Prompt is what the UI shows while waiting for a value.
type Prompt struct {
	Title   string `json:"title"`
	Min     int    `json:"min"`
	Max     int    `json:"max"`
	Value   string `json:"value"`
	Message string `json:"message,omitempty"`
}

// Prompter displays a prompt and blocks until the user submits text or
// cancels. Cancelling returns ErrCancelled.
type Prompter interface {
	Ask(ctx context.Context, p Prompt) (string, error)
}

type Collector struct {
	prompter Prompter
	logger   *zap.Logger
}

func NewCollector(prompter Prompter, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{prompter: prompter, logger: logger}
}

// Collect resolves only with a value in [min, max]. Invalid input re-opens the
// prompt with a range message; only a cancel or the context ending fails it.
func (c *Collector) Collect(ctx context.Context, title string, min, max, defaultValue int) (int, error) {
	if min > max {
		return 0, ErrInvalidSpan
	}

	prompt := Prompt{
		Title: title,
		Min:   min,
		Max:   max,
		Value: strconv.Itoa(defaultValue),
	}

	for {
		input, err := c.prompter.Ask(ctx, prompt)
		if err != nil {
			return 0, err
		}

		value, err := Validate(input, min, max)
		if err == nil {
			return value, nil
		}

		c.logger.Debug("Rejected parameter input",
			zap.String("title", title),
			zap.String("input", input),
			zap.Error(err))

		prompt.Value = input
		prompt.Message = err.Error()
	}
}

// Validate parses input as a base-10 integer and checks it against [min, max].
func Validate(input string, min, max int) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || value < min || value > max {
		return 0, &ValidationError{Input: input, Min: min, Max: max}
	}
	return value, nil
}
