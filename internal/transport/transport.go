// Package transport owns the single long-lived browser instance used to
// fetch HLTV pages past anti-bot challenges: one chromedp allocator and
// tab for the process lifetime, a cooperative adaptive delay loop shared
// by every fetch, and bounded exponential-jitter retry for challenges and
// transient failures.
package transport

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"

	"github.com/pable/hltv-harvester/internal/config"
	"github.com/pable/hltv-harvester/internal/xerrors"
)

// challengeTitles are tab titles that indicate an anti-bot interstitial
// rather than the real page.
var challengeTitles = []string{
	"just a moment",
	"attention required",
	"access denied",
	"checking your browser",
}

// Stats are the monotonic counters exposed by Stats().
type Stats struct {
	Requests     int
	Successes    int
	CurrentDelay time.Duration
}

// Transport fetches HTML through one persistent browser tab.
type Transport struct {
	cfg     config.TransportConfig
	log     *zerolog.Logger
	limiter *rateLimiter

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool

	requests  int
	successes int
}

// New returns a Transport that has not yet launched a browser; call
// Start() before Fetch().
func New(cfg config.TransportConfig, log *zerolog.Logger) *Transport {
	return &Transport{
		cfg: cfg,
		log: log,
		limiter: newRateLimiter(
			cfg.MinDelay, cfg.MaxDelay, cfg.MaxBackoff, cfg.BackoffFactor, cfg.RecoveryFactor, cfg.IdleReset,
		),
	}
}

// Start launches the browser non-headlessly (so the anti-bot layer sees a
// desktop viewport) against whatever display is already configured in the
// environment — a virtual display such as Xvfb, or a real one. Start does
// not enforce which.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", false),
		chromedp.Flag("window-size", "1366,900"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Set a consistent Accept-Language via the CDP Network domain directly
	// rather than a chromedp header action — it must be in place before the
	// very first navigation, not reapplied per-request.
	if err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
	); err != nil {
		tabCancel()
		allocCancel()
		return &xerrors.TransportUnavailableError{Reason: "launch browser tab", Cause: err}
	}

	t.ctx = tabCtx
	t.cancel = func() {
		tabCancel()
		allocCancel()
	}
	t.started = true
	return nil
}

// Close idempotently tears down the browser and its temporary profile dir.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return nil
	}
	t.cancel()
	t.started = false
	return nil
}

// Stats returns a snapshot of the transport's counters.
func (t *Transport) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{Requests: t.requests, Successes: t.successes, CurrentDelay: t.limiter.current()}
}

// Fetch navigates the persistent tab to url and returns its rendered
// outer HTML, retrying on ChallengeServed and transient connectivity
// failures up to the configured attempt bound.
func (t *Transport) Fetch(ctx context.Context, url string) (string, error) {
	t.mu.Lock()
	if !t.started {
		t.mu.Unlock()
		return "", &xerrors.TransportUnavailableError{Reason: "fetch called before Start"}
	}
	t.mu.Unlock()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Second
	bo.MaxInterval = 120 * time.Second
	bo.RandomizationFactor = 5.0 / 10.0
	boWithLimit := backoff.WithMaxRetries(bo, uint64(t.cfg.MaxRetries))

	var html string
	attempt := 0
	op := func() error {
		attempt++
		var err error
		html, err = t.fetchOnce(ctx, url)
		return err
	}
	notify := func(err error, wait time.Duration) {
		t.limiter.onChallenge()
		t.log.Warn().Err(err).Str("url", url).Dur("retry_in", wait).Int("attempt", attempt).Msg("transport retry")
	}

	err := backoff.RetryNotify(retryableOnly(op), boWithLimit, notify)
	if err != nil {
		return "", err
	}
	return html, nil
}

// retryableOnly wraps op so backoff only retries ChallengeServed and
// TransportFailed; PageMissing is per-item and must not be retried.
func retryableOnly(op backoff.Operation) backoff.Operation {
	return func() error {
		err := op()
		if err == nil {
			return nil
		}
		if xerrors.IsPageMissing(err) {
			return backoff.Permanent(err)
		}
		return err
	}
}

func (t *Transport) fetchOnce(ctx context.Context, url string) (string, error) {
	t.limiter.wait()

	t.mu.Lock()
	t.requests++
	t.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(t.ctx, t.cfg.PageLoadWait)
	defer cancel()

	var statusCode int64
	chromedp.ListenTarget(fetchCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			statusCode = resp.Response.Status
		}
	})

	var title, html string
	err := chromedp.Run(fetchCtx,
		chromedp.Navigate(url),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if statusCode == 404 || statusCode == 410 {
		return "", &xerrors.PageMissingError{URL: url, StatusHint: fmt.Sprintf("http %d", statusCode)}
	}
	if err != nil {
		return "", &xerrors.TransportFailedError{URL: url, Cause: err}
	}

	if looksLikeChallenge(title) || len(html) < t.cfg.MinContentChars {
		// One more wait-and-extract before declaring it a challenge —
		// some interstitials resolve within a second or two.
		time.Sleep(t.cfg.ChallengeWait)
		var retryTitle, retryHTML string
		if err := chromedp.Run(fetchCtx,
			chromedp.Title(&retryTitle),
			chromedp.OuterHTML("html", &retryHTML, chromedp.ByQuery),
		); err == nil && !looksLikeChallenge(retryTitle) && len(retryHTML) >= t.cfg.MinContentChars {
			title, html = retryTitle, retryHTML
		} else {
			return "", &xerrors.ChallengeServedError{URL: url, Attempts: 2}
		}
	}

	t.mu.Lock()
	t.successes++
	t.mu.Unlock()
	t.limiter.onSuccess()

	return html, nil
}

func looksLikeChallenge(title string) bool {
	lower := strings.ToLower(title)
	for _, sentinel := range challengeTitles {
		if strings.Contains(lower, sentinel) {
			return true
		}
	}
	return false
}
