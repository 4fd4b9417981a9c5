package config

// RoundConfig controls the Round Controller's per-round and product-level
// budgets (spec §4.1).
type RoundConfig struct {
	MaxRounds          int     `yaml:"max_rounds" validate:"omitempty,min=1"`
	MaxURLs            int     `yaml:"max_urls" validate:"omitempty,min=1"`
	MaxSearchQueries   int     `yaml:"max_search_queries" validate:"omitempty,min=0"`
	MaxLLMCalls        int     `yaml:"max_llm_calls" validate:"omitempty,min=0"`
	MaxHighTierLLMCalls int    `yaml:"max_high_tier_llm_calls" validate:"omitempty,min=0"`
	MaxCostUSD         float64 `yaml:"max_cost_usd" validate:"omitempty,min=0"`
	MaxRunSeconds      int     `yaml:"max_run_seconds" validate:"omitempty,min=1"`
	MarginalYieldDelta float64 `yaml:"marginal_yield_confidence_delta"`
}

// FetchConfig controls the Fetch Scheduler and host pacer (spec §4.3, §5).
type FetchConfig struct {
	Concurrency       int            `yaml:"fetch_concurrency" validate:"omitempty,min=1"`
	ParseConcurrency  int            `yaml:"parse_concurrency" validate:"omitempty,min=1"`
	SearchConcurrency int            `yaml:"search_concurrency" validate:"omitempty,min=1"`
	LLMConcurrency    int            `yaml:"llm_concurrency" validate:"omitempty,min=1"`
	PerHostMinDelayMs int            `yaml:"per_host_min_delay_ms" validate:"omitempty,min=0"`
	MaxRetries        int            `yaml:"max_retries" validate:"omitempty,min=0"`
	MaxPagesPerDomain int            `yaml:"max_pages_per_domain" validate:"omitempty,min=1"`
	DynamicPolicyMap  map[string]string `yaml:"dynamic_fetch_policy_map,omitempty"`
}

// LLMBudgetConfig controls the Budget Guard (spec §4.9).
type LLMBudgetConfig struct {
	MonthlyBudgetUSD        float64 `yaml:"monthly_budget_usd"`
	PerProductBudgetUSD     float64 `yaml:"per_product_budget_usd"`
	MaxCallsPerProductTotal int     `yaml:"max_calls_per_product_total"`
	MaxCallsPerRound        int     `yaml:"max_calls_per_round"`
	DisableBudgetGuards     bool    `yaml:"disable_budget_guards"`
}

// ExtractionConfig controls the structured-metadata sidecar and article/PDF
// extractors (spec §4.4).
type ExtractionConfig struct {
	StructuredMetadataEnabled bool    `yaml:"structured_metadata_enabled"`
	StructuredMetadataURL     string  `yaml:"structured_metadata_url"`
	ArticleExtractorMinScore  float64 `yaml:"article_extractor_min_score"`
	ScannedPDFOCREnabled      bool    `yaml:"scanned_pdf_ocr_enabled"`
	HelperFilesRoot           string  `yaml:"helper_files_root"`
}

// StorageConfig points at the blob key-value store root.
type StorageConfig struct {
	PebblePath   string `yaml:"pebble_path"`
	InputPrefix  string `yaml:"input_prefix"`
	OutputPrefix string `yaml:"output_prefix"`
}

// SpecDBConfig is the Postgres connection for the Spec DB.
type SpecDBConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	SSLMode         string `yaml:"ssl_mode"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
}

// CategoryConfig is one entry in the Rule Store's category registry: the
// approved/denied host lists and search templates for a product category.
type CategoryConfig struct {
	Name               string   `yaml:"name"`
	ApprovedHosts      []string `yaml:"approved_hosts"`
	DeniedHosts        []string `yaml:"denied_hosts"`
	SearchTemplates    []string `yaml:"search_templates"`
	RequiredFields     []string `yaml:"required_fields"`
	ExpectedFields     []string `yaml:"expected_fields"`
	InstrumentedFields []string `yaml:"instrumented_fields"`
}

// SpecFactoryConfig is the root configuration object produced by Load.
type SpecFactoryConfig struct {
	Round      RoundConfig                 `yaml:"round"`
	Fetch      FetchConfig                 `yaml:"fetch"`
	LLMBudget  LLMBudgetConfig             `yaml:"llm_budget"`
	Extraction ExtractionConfig            `yaml:"extraction"`
	Storage    StorageConfig               `yaml:"storage"`
	SpecDB     SpecDBConfig                `yaml:"spec_db"`
	Categories map[string]CategoryConfig   `yaml:"categories"`
}
