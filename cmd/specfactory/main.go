// specfactory runs the product-spec harvesting engine from the command
// line: a single product run, a run-until-complete loop, the monthly
// billing report, and the explain-unk diagnostic (spec.md §6.4).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/billing"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/config"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/consensus"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/engine"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/evidence"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/extract"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/fetch"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/llmclient"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/llmrouter"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/needset"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/persist"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/planner"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/quality"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/ruledb"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/scheduler"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/specdb"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/storage"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Exit codes per spec §6.4: 0 validated, 2 exhausted (not validated, no
// error), 3 identity-aborted, 1 pipeline error.
const (
	exitValidated        = 0
	exitPipelineError    = 1
	exitExhausted        = 2
	exitIdentityAborted  = 3
)

func main() {
	configDir := flag.String("config-dir", getEnv("CONFIG_DIR", "./deploy/config"), "path to configuration directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("usage: specfactory <run|run-until-complete|billing-report|explain-unk> [flags]")
	}
	cmd := args[0]

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	switch cmd {
	case "run":
		runCmd(ctx, cfg, args[1:], model.ModeBalanced, 0)
	case "run-until-complete":
		runUntilCompleteCmd(ctx, cfg, args[1:])
	case "billing-report":
		billingReportCmd(ctx, cfg, args[1:])
	case "explain-unk":
		explainUnkCmd(ctx, cfg, args[1:])
	default:
		log.Fatalf("unknown subcommand %q", cmd)
	}
}

func runUntilCompleteCmd(ctx context.Context, cfg *config.SpecFactoryConfig, args []string) {
	fs := flag.NewFlagSet("run-until-complete", flag.ExitOnError)
	productKey := fs.String("product-key", "", "category/product_id to harvest")
	maxRounds := fs.Int("max-rounds", 0, "override the mode's default round budget")
	_ = fs.Parse(args)

	if *productKey == "" {
		log.Fatal("run-until-complete: --product-key is required")
	}
	os.Exit(harvest(ctx, cfg, *productKey, model.ModeAggressive, *maxRounds))
}

func runCmd(ctx context.Context, cfg *config.SpecFactoryConfig, args []string, defaultMode model.Mode, defaultMaxRounds int) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	productKey := fs.String("product-key", "", "category/product_id to harvest")
	mode := fs.String("mode", string(defaultMode), "fast | balanced | aggressive")
	_ = fs.Parse(args)

	if *productKey == "" {
		log.Fatal("run: --product-key is required")
	}
	os.Exit(harvest(ctx, cfg, *productKey, model.Mode(*mode), defaultMaxRounds))
}

// harvest wires every collaborator for one product run and drives the
// Round Controller to completion, returning the process exit code §6.4
// specifies.
func harvest(ctx context.Context, cfg *config.SpecFactoryConfig, productKey string, mode model.Mode, maxRoundsOverride int) int {
	category, productID, err := splitProductKey(productKey)
	if err != nil {
		log.Printf("error: %v", err)
		return exitPipelineError
	}
	catCfg, ok := cfg.Categories[category]
	if !ok {
		log.Printf("error: unknown category %q", category)
		return exitPipelineError
	}

	store, err := storage.Open(cfg.Storage.PebblePath, cfg.Storage.InputPrefix, cfg.Storage.OutputPrefix)
	if err != nil {
		log.Printf("error: open storage: %v", err)
		return exitPipelineError
	}
	defer store.Close()

	var job model.ProductJob
	if err := store.GetJSON(store.ProductInputKey(category, productID), &job); err != nil {
		log.Printf("error: load product job %s/%s: %v", category, productID, err)
		return exitPipelineError
	}

	db, err := specdb.Open(ctx, cfg.SpecDB)
	if err != nil {
		log.Printf("error: open spec db: %v", err)
		return exitPipelineError
	}
	defer db.Close()

	ruleStore := buildRuleStore(ctx, category, catCfg, db)

	plannerCfg := planner.Config{MaxURLsPerProduct: cfg.Round.MaxURLs, MaxPagesPerDomain: cfg.Fetch.MaxPagesPerDomain}
	src := planner.New(category, ruledb.CategoryConfig{Name: category, ApprovedHosts: catCfg.ApprovedHosts, DeniedHosts: catCfg.DeniedHosts}, plannerCfg)

	pools := scheduler.NewPools(cfg.Fetch.Concurrency, cfg.Fetch.ParseConcurrency, cfg.Fetch.SearchConcurrency, cfg.Fetch.LLMConcurrency)
	pacer := scheduler.NewHostPacer(time.Duration(cfg.Fetch.PerHostMinDelayMs) * time.Millisecond)
	fetcher := fetch.NewHTTPFetcher(30 * time.Second)

	pipeline := extract.NewPipeline(
		extract.NetworkJSONExtractor{},
		extract.EmbeddedStateExtractor{},
		extract.NewStructuredMetadataExtractor(10*time.Minute),
		extract.MicrodataExtractor{},
		extract.StaticDOMExtractor{},
		extract.NewArticleWindowExtractor(cfg.Extraction.ArticleExtractorMinScore),
		extract.NewPDFExtractor(),
	)

	evBuilder := evidence.NewBuilder(4000)

	persistAdapter := persist.New(db, store)

	deps := engine.Deps{
		RuleStore: ruleStore,
		Planner:   src,
		Pools:     pools,
		Pacer:     pacer,
		Fetcher:   fetcher,
		Pipeline:  pipeline,
		EvBuilder: evBuilder,
		LLM:       buildLLMDeps(cfg, db),
		Budgets: engine.Budgets{
			MaxRounds:            maxRoundsOverride,
			MaxURLsPerRound:      cfg.Round.MaxURLs,
			MaxSearchQueries:     cfg.Round.MaxSearchQueries,
			MaxLLMCallsPerRound:  cfg.Round.MaxLLMCalls,
			MaxHighTierLLMCalls:  cfg.Round.MaxHighTierLLMCalls,
			MaxCostUSDPerRound:   cfg.Round.MaxCostUSD,
			MaxCostUSDPerProduct: cfg.LLMBudget.PerProductBudgetUSD,
			MarginalYieldDelta:   cfg.Round.MarginalYieldDelta,
		},
	}

	controller := engine.New(deps, nil)
	runID := uuid.NewString()
	fieldReqs, fieldRules := buildFieldPlan(catCfg, ruleStore)

	log.Printf("harvesting %s/%s run=%s mode=%s", category, productID, runID, mode)
	result := controller.Run(ctx, job, mode, runID, fieldReqs, fieldRules)

	if err := persistRunResult(ctx, persistAdapter, category, productID, runID, result); err != nil {
		log.Printf("error: persist run result: %v", err)
		return exitPipelineError
	}

	log.Printf("run %s finished: stop_reason=%s validated=%v confidence=%.2f coverage=%.2f",
		runID, result.StopReason, result.Validated, result.Confidence, result.CoverageOverall)

	switch {
	case result.IdentityGate == model.IdentityConflict:
		return exitIdentityAborted
	case result.Validated:
		return exitValidated
	default:
		return exitExhausted
	}
}

// persistRunResult fans the run's sources, candidates, evidence packs, and
// final artifacts out to both sinks, in the order pkg/persist documents:
// sources and candidates alongside their evidence packs, then the
// normalized/provenance/summary artifacts and latest pointers last.
func persistRunResult(ctx context.Context, p *persist.Adapter, category, productID, runID string, result model.RunResult) error {
	for _, src := range result.Sources {
		if err := p.WriteSource(ctx, runID, category, productID, src); err != nil {
			return err
		}
	}
	for _, candidates := range result.Candidates {
		if err := p.WriteCandidates(ctx, runID, category, productID, candidates); err != nil {
			return err
		}
	}
	for _, score := range result.IdentityScores {
		assertionID := runID + "::" + score.SourceID
		if err := p.WriteIdentityAssertion(ctx, assertionID, score.SourceID, productID, score.Passed, score.Score); err != nil {
			return err
		}
	}
	for _, pack := range result.EvidencePacks {
		if err := p.WriteEvidencePack(category, productID, runID, pack); err != nil {
			return err
		}
	}
	return p.WriteRunResult(category, productID, runID, result)
}

// buildRuleStore loads field contracts from the category's configured
// field lists (the only per-field contract source wired here) and the LLM
// route matrix from the Spec DB.
func buildRuleStore(ctx context.Context, category string, catCfg config.CategoryConfig, db *specdb.Repository) *ruledb.Store {
	store := ruledb.NewStore(category)

	var contracts []ruledb.FieldContract
	for _, f := range catCfg.RequiredFields {
		contracts = append(contracts, ruledb.FieldContract{Field: f, Scope: model.ScopeScalar, RequiredLevel: "required", AvailabilityClass: model.AvailabilityExpected})
	}
	for _, f := range catCfg.ExpectedFields {
		contracts = append(contracts, ruledb.FieldContract{Field: f, Scope: model.ScopeScalar, RequiredLevel: "expected", AvailabilityClass: model.AvailabilitySometimes})
	}
	for _, f := range catCfg.InstrumentedFields {
		contracts = append(contracts, ruledb.FieldContract{Field: f, Scope: model.ScopeScalar, RequiredLevel: "instrumented_only", AvailabilityClass: model.AvailabilityRare})
	}
	store.LoadFieldContracts(contracts)

	if db == nil {
		return store
	}

	rows, err := db.LoadRouteMatrix(ctx, category)
	if err != nil {
		log.Printf("warning: load route matrix for %s: %v", category, err)
		return store
	}
	var routeRows []ruledb.RouteMatrixRow
	for _, r := range rows {
		routeRows = append(routeRows, ruledb.RouteMatrixRow{
			Scope:         model.FieldScope(r.Scope),
			RequiredLevel: r.RequiredLevel,
			Difficulty:    r.Difficulty,
			Availability:  model.AvailabilityClass(r.Availability),
			Effort:        r.Effort,
			Decision: model.RouteDecision{
				ModelLadder:                r.ModelLadder,
				AllSourceData:              r.AllSourceData,
				EnableWebsearch:            r.EnableWebsearch,
				MaxTokens:                  r.MaxTokens,
				SendPacket:                 model.SendPacket(r.SendPacket),
				MinEvidenceRefsRequired:    r.MinEvidenceRefsRequired,
				InsufficientEvidenceAction: r.InsufficientEvidenceAction,
			},
		})
	}
	store.LoadRouteMatrix(routeRows)
	return store
}

// buildFieldPlan derives the quality gate's field requirements and the
// consensus engine's per-field conflict rules from the category's
// configured field lists.
func buildFieldPlan(catCfg config.CategoryConfig, store *ruledb.Store) ([]quality.FieldRequirement, map[string]consensus.FieldRule) {
	var reqs []quality.FieldRequirement
	rules := map[string]consensus.FieldRule{}

	add := func(field, level string, critical bool) {
		reqs = append(reqs, quality.FieldRequirement{Field: field, RequiredLevel: level, Critical: critical})
		contract, _ := store.FieldContract(field)
		rules[field] = consensus.FieldRule{
			ConflictPolicy:  firstNonEmpty(contract.ConflictPolicy, "resolve_by_tier_else_unknown"),
			PassTarget:      store.PassTarget(field),
			ClosedEnum:      contract.ClosedEnum,
			EnumValues:      contract.EnumValues,
			PlausibilityMin: contract.PlausibilityMin,
			PlausibilityMax: contract.PlausibilityMax,
			HasPlausibility: contract.HasPlausibility,
			ApprovedHosts:   catCfg.ApprovedHosts,
		}
	}
	for _, f := range catCfg.RequiredFields {
		add(f, "required", true)
	}
	for _, f := range catCfg.ExpectedFields {
		add(f, "expected", false)
	}
	for _, f := range catCfg.InstrumentedFields {
		add(f, "instrumented_only", false)
	}
	return reqs, rules
}

func firstNonEmpty(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// buildLLMDeps wires the LLM Router & Budget Guard only when a provider
// endpoint is configured; otherwise extraction runs deterministic-only,
// a valid configuration per pkg/engine/llm.go's doc comment.
func buildLLMDeps(cfg *config.SpecFactoryConfig, db *specdb.Repository) engine.LLMDeps {
	baseURL := os.Getenv("LLM_BASE_URL")
	if baseURL == "" {
		return engine.LLMDeps{}
	}
	apiKey := os.Getenv("LLM_API_KEY")
	client := llmclient.NewHTTPClient(baseURL, apiKey, 60*time.Second)

	ledgerPath := getEnv("BILLING_LEDGER_PATH", "./data/billing_ledger.ndjson")
	ledger := billing.NewLedger(db, ledgerPath)
	pricing := billing.NewPricingTable(nil)
	budget := llmrouter.NewBudgetGuard(
		cfg.LLMBudget.MonthlyBudgetUSD,
		cfg.LLMBudget.PerProductBudgetUSD,
		cfg.LLMBudget.MaxCallsPerProductTotal,
		cfg.LLMBudget.MaxCallsPerRound,
		cfg.LLMBudget.DisableBudgetGuards,
	)

	return engine.LLMDeps{
		Client:   client,
		Budget:   budget,
		Ledger:   ledger,
		Pricing:  pricing,
		Provider: getEnv("LLM_PROVIDER", "default"),
	}
}

func billingReportCmd(ctx context.Context, cfg *config.SpecFactoryConfig, args []string) {
	fs := flag.NewFlagSet("billing-report", flag.ExitOnError)
	month := fs.String("month", time.Now().UTC().Format("2006-01"), "YYYY-MM")
	_ = fs.Parse(args)

	db, err := specdb.Open(ctx, cfg.SpecDB)
	if err != nil {
		log.Fatalf("open spec db: %v", err)
	}
	defer db.Close()

	entries, err := db.MonthlyBillingEntries(ctx, *month)
	if err != nil {
		log.Fatalf("load billing entries for %s: %v", *month, err)
	}

	var totalCost float64
	var totalCalls int
	byCategory := map[string]float64{}
	for _, e := range entries {
		totalCost += e.CostUSD
		totalCalls++
		byCategory[e.Category] += e.CostUSD
	}

	fmt.Printf("billing report for %s\n", *month)
	fmt.Printf("  total calls: %d\n", totalCalls)
	fmt.Printf("  total cost:  $%.4f\n", totalCost)
	for cat, cost := range byCategory {
		fmt.Printf("  %-20s $%.4f\n", cat, cost)
	}
}

func explainUnkCmd(ctx context.Context, cfg *config.SpecFactoryConfig, args []string) {
	fs := flag.NewFlagSet("explain-unk", flag.ExitOnError)
	category := fs.String("category", "", "product category")
	brand := fs.String("brand", "", "product brand")
	modelName := fs.String("model", "", "product model")
	_ = fs.Parse(args)

	if *category == "" || *brand == "" || *modelName == "" {
		log.Fatal("explain-unk: --category, --brand, and --model are required")
	}

	store, err := storage.Open(cfg.Storage.PebblePath, cfg.Storage.InputPrefix, cfg.Storage.OutputPrefix)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer store.Close()

	productID := *brand + "_" + *modelName
	adapter := persist.New(nil, store)
	result, err := adapter.ReadLatestSummary(*category, productID)
	if err != nil {
		log.Fatalf("read latest summary for %s/%s: %v", *category, productID, err)
	}

	catCfg := cfg.Categories[*category]
	ruleStore := buildRuleStore(ctx, *category, catCfg, nil)

	for field, p := range result.Provenance {
		if p.Value != model.Unk {
			continue
		}
		contract, _ := ruleStore.FieldContract(field)
		row := model.NeedsetRow{
			Field:             field,
			RequiredLevel:     contract.RequiredLevel,
			AvailabilityClass: contract.AvailabilityClass,
		}
		reason := model.UnknownReason(p.UnknownReason)
		fmt.Println(needset.Explain(field, reason, row))
	}

	b, _ := json.MarshalIndent(result.Fields, "", "  ")
	fmt.Println(string(b))
}

func splitProductKey(key string) (category, productID string, err error) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("product key %q must be category/product_id", key)
}
