// Package specdb implements the Spec DB repository (spec.md §6.3):
// candidates, source_registry, source_assertions, source_evidence_refs,
// billing_entries, llm_route_matrix. Grounded on the teacher's
// pkg/database/client.go connection-pool-plus-migration-on-boot pattern,
// adapted from an ent-generated client to raw jackc/pgx/v5 SQL since no
// `go generate` can run in this environment — ent/schema/*.go stays as a
// documentation-only schema contract for the same six tables.
package specdb

import (
	"context"
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CdubVentures/spec-harvester-sub014/pkg/config"
	"github.com/CdubVentures/spec-harvester-sub014/pkg/model"
)

//go:embed migrations
var migrationsFS embed.FS

// Repository wraps a pgx connection pool and implements every Spec DB
// write/read the engine needs.
type Repository struct {
	pool *pgxpool.Pool
}

// Open connects, runs embedded migrations, and returns a ready Repository.
func Open(ctx context.Context, cfg config.SpecDBConfig) (*Repository, error) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d&pool_min_conns=%d",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
		maxInt(cfg.MaxOpenConns, 1), maxInt(cfg.MaxIdleConns, 0),
	)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("specdb: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("specdb: ping: %w", err)
	}

	if err := runMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("specdb: migrate: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() { r.pool.Close() }

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}

// runMigrations applies embedded SQL migrations using golang-migrate, the
// same iofs-embed pattern the teacher's pkg/database/client.go used for
// its ent-generated schema, pointed at this package's hand-written SQL
// instead.
func runMigrations(cfg config.SpecDBConfig) error {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode)

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, dsn)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// InsertCandidate upserts a candidate row, keyed by candidate_id (the
// fingerprint), so a re-extracted identical observation is a no-op write.
func (r *Repository) InsertCandidate(ctx context.Context, runID, category, productID string, c model.Candidate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO candidates (
			candidate_id, run_id, product_id, category, source_id, field, scope,
			value_scalar, value_list, method, key_path, confidence_base,
			evidence_refs, page_product_cluster_id, target_match_score, target_match_passed
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (candidate_id) DO NOTHING`,
		c.CandidateID, runID, productID, category, c.SourceID, c.Field, string(c.Value.Scope),
		c.Value.Scalar, c.Value.List, string(c.Method), c.KeyPath, c.ConfidenceBase,
		c.EvidenceRefs, c.PageProductClusterID, c.TargetMatchScore, c.TargetMatchPassed,
	)
	if err != nil {
		return fmt.Errorf("specdb: insert candidate: %w", err)
	}
	return nil
}

// InsertSource upserts a source_registry row.
func (r *Repository) InsertSource(ctx context.Context, runID, category, productID string, s model.Source) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO source_registry (
			source_id, run_id, product_id, category, url, final_url, host, root_domain,
			tier, role, fetched_at, http_status, fetch_method, content_hash, text_hash,
			synthetic, fetch_outcome
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (source_id) DO UPDATE SET
			http_status = EXCLUDED.http_status,
			fetch_outcome = EXCLUDED.fetch_outcome`,
		s.SourceID, runID, productID, category, s.URL, s.FinalURL, s.Host, s.RootDomain,
		int(s.Tier), s.Role, s.FetchedAt, s.HTTPStatus, string(s.FetchMethod), s.ContentHash, s.TextHash,
		s.Synthetic, s.FetchOutcome,
	)
	if err != nil {
		return fmt.Errorf("specdb: insert source: %w", err)
	}
	return nil
}

// InsertSourceAssertion records one identity-gate per-field agreement.
func (r *Repository) InsertSourceAssertion(ctx context.Context, id, sourceID, productID, field string, matched bool, score float64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO source_assertions (id, source_id, product_id, field, matched, score)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO NOTHING`,
		id, sourceID, productID, field, matched, score,
	)
	if err != nil {
		return fmt.Errorf("specdb: insert source assertion: %w", err)
	}
	return nil
}

// InsertEvidenceRef records a candidate-to-snippet binding.
func (r *Repository) InsertEvidenceRef(ctx context.Context, id, candidateID, sourceID, snippetID, snippetHash string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO source_evidence_refs (id, candidate_id, source_id, snippet_id, snippet_hash)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING`,
		id, candidateID, sourceID, snippetID, snippetHash,
	)
	if err != nil {
		return fmt.Errorf("specdb: insert evidence ref: %w", err)
	}
	return nil
}

// InsertBillingEntry implements pkg/billing.SpecDBWriter.
func (r *Repository) InsertBillingEntry(ctx context.Context, entry model.BillingEntry) error {
	id := fmt.Sprintf("%s-%s-%d", entry.RunID, entry.ProductID, entry.TS)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO billing_entries (
			id, ts, month, day, provider, model, category, product_id, run_id, round,
			prompt_tokens, completion_tokens, cached_prompt_tokens, cost_usd, reason,
			host, evidence_chars, estimated_usage
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		ON CONFLICT (id) DO NOTHING`,
		id, entry.TS, entry.Month, entry.Day, entry.Provider, entry.Model, entry.Category,
		entry.ProductID, entry.RunID, entry.Round, entry.PromptTokens, entry.CompletionTokens,
		entry.CachedPromptTokens, entry.CostUSD, entry.Reason, entry.Host, entry.EvidenceChars,
		entry.EstimatedUsage,
	)
	if err != nil {
		return fmt.Errorf("specdb: insert billing entry: %w", err)
	}
	return nil
}

// MonthlyBillingEntries loads every billing entry for a given YYYY-MM,
// used by `billing-report` when the ndjson ledger mirror is unavailable.
func (r *Repository) MonthlyBillingEntries(ctx context.Context, month string) ([]model.BillingEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ts, month, day, provider, model, category, product_id, run_id, round,
		       prompt_tokens, completion_tokens, cached_prompt_tokens, cost_usd, reason,
		       host, evidence_chars, estimated_usage
		FROM billing_entries WHERE month = $1 ORDER BY ts`, month)
	if err != nil {
		return nil, fmt.Errorf("specdb: query billing entries: %w", err)
	}
	defer rows.Close()

	var out []model.BillingEntry
	for rows.Next() {
		var e model.BillingEntry
		if err := rows.Scan(&e.TS, &e.Month, &e.Day, &e.Provider, &e.Model, &e.Category,
			&e.ProductID, &e.RunID, &e.Round, &e.PromptTokens, &e.CompletionTokens,
			&e.CachedPromptTokens, &e.CostUSD, &e.Reason, &e.Host, &e.EvidenceChars, &e.EstimatedUsage); err != nil {
			return nil, fmt.Errorf("specdb: scan billing entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// LoadRouteMatrix loads every llm_route_matrix row for a category.
func (r *Repository) LoadRouteMatrix(ctx context.Context, category string) ([]RouteMatrixRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT scope, required_level, difficulty, availability, effort, model_ladder,
		       all_source_data, enable_websearch, max_tokens, send_packet,
		       min_evidence_refs_required, insufficient_evidence_action
		FROM llm_route_matrix WHERE category = $1`, category)
	if err != nil {
		return nil, fmt.Errorf("specdb: query route matrix: %w", err)
	}
	defer rows.Close()

	var out []RouteMatrixRow
	for rows.Next() {
		var row RouteMatrixRow
		if err := rows.Scan(&row.Scope, &row.RequiredLevel, &row.Difficulty, &row.Availability,
			&row.Effort, &row.ModelLadder, &row.AllSourceData, &row.EnableWebsearch,
			&row.MaxTokens, &row.SendPacket, &row.MinEvidenceRefsRequired, &row.InsufficientEvidenceAction); err != nil {
			return nil, fmt.Errorf("specdb: scan route matrix row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// RouteMatrixRow mirrors ent/schema/billingentry.go's LLMRouteMatrixRow
// shape as a plain Go struct for scanning.
type RouteMatrixRow struct {
	Scope                      string
	RequiredLevel              string
	Difficulty                 string
	Availability               string
	Effort                     int
	ModelLadder                []string
	AllSourceData              bool
	EnableWebsearch            bool
	MaxTokens                  int
	SendPacket                 string
	MinEvidenceRefsRequired    int
	InsufficientEvidenceAction string
}
