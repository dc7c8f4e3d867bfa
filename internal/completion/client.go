// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"syscall"
	"text/template"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/bartekus/vetgate/internal/finding"
	"github.com/bartekus/vetgate/internal/pysource"
)

// ErrMalformedOutput marks a response that could not be turned into the
// requested artifact. Such responses are never retried.
var ErrMalformedOutput = errors.New("malformed completion output")

// ServiceError is a failed call to the completion service.
type ServiceError struct {
	Op        string
	Attempts  int
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: completion service failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Options configure a Client.
type Options struct {
	TestPrompt   string
	ReviewPrompt string
	// MaxAttempts is the total number of attempts for transient failures.
	MaxAttempts int
	RetryDelay  time.Duration
	// Timeout bounds a single attempt.
	Timeout time.Duration
}

// Client generates tests and reviews through a chat model.
type Client struct {
	model      ChatModel
	opts       Options
	testTmpl   *template.Template
	reviewTmpl *template.Template
	sleep      func(context.Context, time.Duration) error
	log        *slog.Logger
}

// NewClient parses the prompt templates and returns a ready client.
func NewClient(m ChatModel, opts Options, log *slog.Logger) (*Client, error) {
	if m == nil {
		return nil, errors.New("completion: nil chat model")
	}
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Minute
	}
	testTmpl, err := template.New("test_generation").Parse(opts.TestPrompt)
	if err != nil {
		return nil, fmt.Errorf("parsing test prompt: %w", err)
	}
	reviewTmpl, err := template.New("review").Parse(opts.ReviewPrompt)
	if err != nil {
		return nil, fmt.Errorf("parsing review prompt: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		model:      m,
		opts:       opts,
		testTmpl:   testTmpl,
		reviewTmpl: reviewTmpl,
		sleep:      sleepCtx,
		log:        log,
	}, nil
}

type promptData struct {
	Code       string
	ModuleName string
	Signatures string
}

// TestGeneration is generated test code plus any parsing warnings.
type TestGeneration struct {
	Code     string   `json:"code"`
	Warnings []string `json:"warnings,omitempty"`
}

// GenerateTests asks the service for a pytest module covering the given
// signatures. The returned code is guaranteed to parse as Python.
func (c *Client) GenerateTests(ctx context.Context, code, moduleName, signatures string) (TestGeneration, error) {
	var out TestGeneration
	prompt, err := render(c.testTmpl, promptData{Code: code, ModuleName: moduleName, Signatures: signatures})
	if err != nil {
		return out, err
	}
	resp, err := c.call(ctx, "generate tests", prompt)
	if err != nil {
		return out, err
	}

	extracted, warnings := ExtractCode(resp)
	for _, w := range warnings {
		c.log.Warn("test generation", "warning", w)
	}
	out.Warnings = warnings
	if strings.TrimSpace(extracted) == "" {
		return out, fmt.Errorf("generate tests: %w: no code in response", ErrMalformedOutput)
	}
	if err := pysource.CheckSyntax(ctx, []byte(extracted)); err != nil {
		return out, fmt.Errorf("generate tests: %w: %w", ErrMalformedOutput, err)
	}
	out.Code = extracted
	return out, nil
}

// Review is the advisory review of one module.
type Review struct {
	Findings []finding.Finding `json:"findings"`
	Warnings []string          `json:"warnings,omitempty"`
}

// GenerateReview asks the service for review findings. Malformed elements of
// the returned array are dropped with a warning; a response that is not a
// JSON array at all is an ErrMalformedOutput.
func (c *Client) GenerateReview(ctx context.Context, code, moduleName string) (Review, error) {
	var out Review
	prompt, err := render(c.reviewTmpl, promptData{Code: code, ModuleName: moduleName})
	if err != nil {
		return out, err
	}
	resp, err := c.call(ctx, "review code", prompt)
	if err != nil {
		return out, err
	}
	findings, warnings, err := ParseFindings(resp)
	for _, w := range warnings {
		c.log.Warn("review", "warning", w)
	}
	if err != nil {
		return out, fmt.Errorf("review code: %w", err)
	}
	out.Findings = findings
	out.Warnings = warnings
	return out, nil
}

func render(t *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// call sends prompt, retrying transient failures with a fixed delay.
func (c *Client) call(ctx context.Context, op, prompt string) (string, error) {
	msgs := []*schema.Message{schema.UserMessage(prompt)}
	for attempt := 1; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		msg, err := c.model.Generate(attemptCtx, msgs)
		cancel()

		if err == nil {
			if msg == nil {
				return "", &ServiceError{Op: op, Attempts: attempt, Err: errors.New("empty response")}
			}
			if attempt > 1 {
				c.log.Info("completion succeeded after retry", "op", op, "attempt", attempt)
			}
			return msg.Content, nil
		}

		transient := ctx.Err() == nil && IsTransient(err)
		if !transient || attempt >= c.opts.MaxAttempts {
			return "", &ServiceError{Op: op, Attempts: attempt, Transient: transient, Err: err}
		}
		c.log.Warn("transient completion failure, retrying",
			"op", op, "attempt", attempt, "max_attempts", c.opts.MaxAttempts, "error", err)
		if err := c.sleep(ctx, c.opts.RetryDelay); err != nil {
			return "", &ServiceError{Op: op, Attempts: attempt, Err: err}
		}
	}
}

// IsTransient reports whether err looks like a connection or timeout
// failure worth retrying. HTTP status errors are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	// Providers frequently flatten transport errors into strings.
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"operation timed out",
		"i/o timeout",
		"context deadline exceeded",
		"no such host",
		"broken pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
