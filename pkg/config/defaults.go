package config

// BuiltinDefaults returns the built-in configuration merged underneath any
// user-supplied YAML (mirrors the teacher's GetBuiltinConfig pattern).
func BuiltinDefaults() *SpecFactoryConfig {
	return &SpecFactoryConfig{
		Round: RoundConfig{
			MaxRounds:           4,
			MaxURLs:             20,
			MaxSearchQueries:    6,
			MaxLLMCalls:         10,
			MaxHighTierLLMCalls: 2,
			MaxCostUSD:          2.00,
			MaxRunSeconds:       600,
			MarginalYieldDelta:  0.02,
		},
		Fetch: FetchConfig{
			Concurrency:       4,
			ParseConcurrency:  4,
			SearchConcurrency: 2,
			LLMConcurrency:    2,
			PerHostMinDelayMs: 300,
			MaxRetries:        1,
			MaxPagesPerDomain: 5,
		},
		LLMBudget: LLMBudgetConfig{
			MonthlyBudgetUSD:        500.00,
			PerProductBudgetUSD:     0.50,
			MaxCallsPerProductTotal: 12,
			MaxCallsPerRound:        4,
		},
		Extraction: ExtractionConfig{
			StructuredMetadataEnabled: true,
			ArticleExtractorMinScore:  0.4,
			ScannedPDFOCREnabled:      false,
		},
		Storage: StorageConfig{
			PebblePath:   "./data/blobs",
			InputPrefix:  "inputs",
			OutputPrefix: "outputs",
		},
		SpecDB: SpecDBConfig{
			Host:         "localhost",
			Port:         5432,
			SSLMode:      "disable",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Categories: map[string]CategoryConfig{},
	}
}
