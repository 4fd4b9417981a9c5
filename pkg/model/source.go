package model

import "time"

// Tier ranks a source's trust level. Lower is more authoritative.
type Tier int

const (
	TierManufacturer Tier = 1
	TierLabDatabase  Tier = 2
	TierRetailer     Tier = 3
	TierCandidate    Tier = 4
)

// FetchMethod identifies which fetcher mode produced a Source's page data.
type FetchMethod string

const (
	FetchDynamicBrowser FetchMethod = "dynamic_browser"
	FetchHTTP           FetchMethod = "http"
	FetchCrawlee        FetchMethod = "crawlee"
	FetchHelperSynth    FetchMethod = "helper_synthetic"
)

// Source is a fetched (or synthetic helper) URL. source_id is stable:
// category::product_id::host::run_id.
type Source struct {
	SourceID     string      `json:"source_id"`
	URL          string      `json:"url"`
	FinalURL     string      `json:"final_url"`
	Host         string      `json:"host"`
	RootDomain   string      `json:"root_domain"`
	Tier         Tier        `json:"tier"`
	Role         string      `json:"role"`
	FetchedAt    time.Time   `json:"fetched_at"`
	HTTPStatus   int         `json:"http_status"`
	FetchMethod  FetchMethod `json:"fetch_method"`
	ContentHash  string      `json:"content_hash"`
	TextHash     string      `json:"text_hash"`
	Synthetic    bool        `json:"synthetic,omitempty"`
	FetchOutcome string      `json:"fetch_outcome,omitempty"`
}

// FetchOutcomeTelemetry is the scheduler's per-source attempt report (§4.3).
type FetchOutcomeTelemetry struct {
	SourceID          string        `json:"source_id"`
	Attempts          int           `json:"attempts"`
	RetryCount        int           `json:"retry_count"`
	RetryReasons      []string      `json:"retry_reasons"`
	MatchedHostPolicy string        `json:"matched_host_policy"`
	NavigationMs      time.Duration `json:"navigation_ms"`
	NetworkIdleMs     time.Duration `json:"network_idle_ms"`
	ReplayMs          time.Duration `json:"replay_ms"`
}
