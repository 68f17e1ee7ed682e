// Package rewriter replaces the links of a message with shortened ones.
//
// Every eligible link is shortened concurrently under its own timeout. A link
// that cannot be shortened for any reason is kept as it was, so a rewrite
// always returns complete text. Occurrences are substituted by offset: the
// same URL appearing twice is shortened twice and each occurrence receives
// its own answer.
package rewriter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BorodachevAV/shortlinkbot/internal/linkextract"
	"github.com/BorodachevAV/shortlinkbot/internal/metrics"
)

const DefaultTimeout = 10 * time.Second

// DefaultExcludedPrefixes are Telegram deep links, which are never shortened.
var DefaultExcludedPrefixes = []string{
	"https://t.me/",
	"http://t.me/",
	"https://telegram.me/",
	"http://telegram.me/",
	"https://telegram.dog/",
}

var (
	ErrEmptyCredential = errors.New("empty credential")
	errEmptyShortURL   = errors.New("shortener returned an empty url")
)

// Shortener turns one long link into a short one.
type Shortener interface {
	Shorten(ctx context.Context, credential, link string) (string, error)
}

// Result is the rewritten text with per-outcome link counts.
type Result struct {
	Text       string
	Shortened  int
	Excluded   int
	Unresolved int
}

type Option func(*Rewriter)

func WithTimeout(d time.Duration) Option {
	return func(r *Rewriter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithExcludedPrefixes(prefixes ...string) Option {
	return func(r *Rewriter) {
		r.excluded = append([]string(nil), prefixes...)
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Rewriter) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Rewriter) {
		r.metrics = m
	}
}

// Rewriter holds no per-call state and may be shared between goroutines.
type Rewriter struct {
	shortener Shortener
	timeout   time.Duration
	excluded  []string
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func New(s Shortener, opts ...Option) *Rewriter {
	r := &Rewriter{
		shortener: s,
		timeout:   DefaultTimeout,
		excluded:  DefaultExcludedPrefixes,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// outcome is the resolution of one span: a short link, or the reason there is none.
type outcome struct {
	value    string
	excluded bool
	err      error
}

// Rewrite shortens every eligible link of text using credential.
// Failed links are left untouched and counted in Result.Unresolved; the only
// errors are ErrEmptyCredential and the error of a context cancelled before
// all links were resolved.
func (r *Rewriter) Rewrite(ctx context.Context, text, credential string) (Result, error) {
	if credential == "" {
		return Result{}, ErrEmptyCredential
	}
	start := time.Now()
	defer func() {
		r.metrics.ObserveRewrite(time.Since(start))
	}()

	spans := linkextract.Extract(text)
	if len(spans) == 0 {
		return Result{Text: text}, nil
	}

	outcomes := make([]outcome, len(spans))
	var g errgroup.Group
	for i, span := range spans {
		if r.isExcluded(span.URL) {
			outcomes[i] = outcome{excluded: true}
			continue
		}
		g.Go(func() error {
			outcomes[i] = r.resolve(ctx, credential, span.URL)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return r.assemble(text, spans, outcomes), nil
}

func (r *Rewriter) isExcluded(link string) bool {
	for _, p := range r.excluded {
		if strings.HasPrefix(link, p) {
			return true
		}
	}
	return false
}

// resolve gives up after the timeout even if the shortener ignores its context.
func (r *Rewriter) resolve(ctx context.Context, credential, link string) outcome {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("shortener panic: %v", p)}
			}
		}()
		short, err := r.shortener.Shorten(ctx, credential, link)
		switch {
		case err != nil:
			done <- outcome{err: err}
		case short == "":
			done <- outcome{err: errEmptyShortURL}
		default:
			done <- outcome{value: short}
		}
	}()

	select {
	case o := <-done:
		return o
	case <-ctx.Done():
		return outcome{err: ctx.Err()}
	}
}

func (r *Rewriter) assemble(text string, spans []linkextract.Span, outcomes []outcome) Result {
	var (
		res  Result
		b    strings.Builder
		prev int
	)
	b.Grow(len(text))
	for i, span := range spans {
		b.WriteString(text[prev:span.Start])
		prev = span.End

		o := outcomes[i]
		switch {
		case o.excluded:
			res.Excluded++
			r.metrics.Link(metrics.OutcomeExcluded)
			b.WriteString(span.URL)
		case o.err != nil:
			res.Unresolved++
			r.metrics.Link(metrics.OutcomeFallback)
			r.logger.Debug("link kept unshortened",
				zap.String("url", span.URL),
				zap.Int("offset", span.Start),
				zap.Error(o.err),
			)
			b.WriteString(span.URL)
		default:
			res.Shortened++
			r.metrics.Link(metrics.OutcomeShortened)
			b.WriteString(o.value)
		}
	}
	b.WriteString(text[prev:])
	res.Text = b.String()
	return res
}
