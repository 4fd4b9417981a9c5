// Package fetch implements the Fetcher collaborator: executes a single
// source fetch under one of the fetcher modes and classifies the result
// into the outcome taxonomy the Fetch Scheduler's fallback ladder drives
// off of (spec.md §4.3).
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

// Outcome classifies a fetch attempt for the fallback ladder (spec §4.3 table).
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeBadContent      Outcome = "bad_content"
	OutcomeLoginWall       Outcome = "login_wall"
	OutcomeBlocked         Outcome = "blocked"
	OutcomeBotChallenge    Outcome = "bot_challenge"
	OutcomeServerError     Outcome = "server_error"
	OutcomeNetworkTimeout  Outcome = "network_timeout"
	OutcomeFetchError      Outcome = "fetch_error"
	OutcomeRateLimited     Outcome = "rate_limited"
	OutcomeFallbackExhausted Outcome = "fallback_exhausted"
)

// LadderAction is what the scheduler should do in response to an Outcome.
type LadderAction string

const (
	ActionNone              LadderAction = "none"
	ActionSkip              LadderAction = "skip"
	ActionTryAlternateFetch LadderAction = "try_alternate_fetcher"
	ActionWaitAndRetry      LadderAction = "wait_and_retry_same"
)

// NextAction implements the §4.3 fallback-ladder table.
func (o Outcome) NextAction() LadderAction {
	switch o {
	case OutcomeOK:
		return ActionNone
	case OutcomeNotFound, OutcomeBadContent, OutcomeLoginWall:
		return ActionSkip
	case OutcomeBlocked, OutcomeBotChallenge, OutcomeServerError, OutcomeNetworkTimeout, OutcomeFetchError:
		return ActionTryAlternateFetch
	case OutcomeRateLimited:
		return ActionWaitAndRetry
	default:
		return ActionSkip
	}
}

// PageData is the raw result of one fetch: rendered HTML, any captured
// network JSON, embedded state payloads, and (future) screenshots.
type PageData struct {
	FinalURL       string
	HTTPStatus     int
	HTML           string
	NetworkJSON    []string // raw JSON bodies captured from XHR/GraphQL
	EmbeddedState  []string // framework hydration payloads found in HTML
	ContentHash    string
	TextHash       string
	NavigationTime time.Duration
}

// Fetcher executes one fetch and returns a model.Outcome[PageData] so the
// scheduler can branch on Ok/Skip/Retry/Failed without exceptions
// (spec §9 "Exceptions for control flow").
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) model.Outcome[PageData]
	Mode() model.FetchMethod
}

// Ladder returns the fetcher mode to try after the current one fails,
// cycling dynamic_browser -> crawlee -> http -> (exhausted).
func Ladder(current model.FetchMethod) (model.FetchMethod, bool) {
	switch current {
	case model.FetchDynamicBrowser:
		return model.FetchCrawlee, true
	case model.FetchCrawlee:
		return model.FetchHTTP, true
	default:
		return "", false
	}
}

// HTTPFetcher is the plain-HTTP fetcher mode, grounded on the runbook
// client's request/auth/body-read pattern. It cannot execute JavaScript,
// so NetworkJSON/EmbeddedState are always empty for this mode.
type HTTPFetcher struct {
	Client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Mode() model.FetchMethod { return model.FetchHTTP }

func (f *HTTPFetcher) Fetch(ctx context.Context, sourceURL string) model.Outcome[PageData] {
	if _, err := url.ParseRequestURI(sourceURL); err != nil {
		return model.Failed[PageData]("invalid_url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return model.Failed[PageData](fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("User-Agent", "SpecFactoryBot/1.0 (+https://example.invalid/bot)")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return model.Retry[PageData](model.FetchMethod(""), string(OutcomeNetworkTimeout))
		}
		return model.Retry[PageData](model.FetchMethod(""), string(OutcomeFetchError))
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	outcome := classifyStatus(resp.StatusCode)
	if outcome != OutcomeOK {
		if action := outcome.NextAction(); action == ActionSkip {
			return model.Skip[PageData](string(outcome))
		}
		return model.Retry[PageData](model.FetchMethod(""), string(outcome))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return model.Retry[PageData](model.FetchMethod(""), string(OutcomeFetchError))
	}

	html := string(body)
	contentHash := hashBytes(body)
	textHash := hashBytes([]byte(normalizeText(html)))

	return model.Ok(PageData{
		FinalURL:       resp.Request.URL.String(),
		HTTPStatus:     resp.StatusCode,
		HTML:           html,
		ContentHash:    contentHash,
		TextHash:       textHash,
		NavigationTime: elapsed,
	})
}

func classifyStatus(status int) Outcome {
	switch {
	case status == http.StatusOK:
		return OutcomeOK
	case status == http.StatusNotFound:
		return OutcomeNotFound
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status == http.StatusForbidden:
		return OutcomeBlocked
	case status >= 500:
		return OutcomeServerError
	default:
		return OutcomeBadContent
	}
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func normalizeText(html string) string {
	return strings.Join(strings.Fields(html), " ")
}
