package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// BillingEntry holds the schema definition for the billing_entries table
// (spec §3.8, §6.3): one immutable LLM-call cost record.
type BillingEntry struct {
	ent.Schema
}

func (BillingEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").StorageKey("entry_id").Unique().Immutable(),
		field.Int64("ts").Immutable(),
		field.String("month").Immutable(),
		field.String("day").Immutable(),
		field.String("provider").Immutable(),
		field.String("model").Immutable(),
		field.String("category").Immutable(),
		field.String("product_id").Immutable(),
		field.String("run_id").Immutable(),
		field.Int("round").Immutable(),
		field.Int("prompt_tokens").Immutable(),
		field.Int("completion_tokens").Immutable(),
		field.Int("cached_prompt_tokens").Immutable(),
		field.Float("cost_usd").Immutable(),
		field.String("reason").Immutable(),
		field.String("host").Optional(),
		field.Int("evidence_chars").Optional(),
		field.Bool("estimated_usage").Default(false),
	}
}

func (BillingEntry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("month"),
		index.Fields("product_id", "run_id"),
	}
}

// LLMRouteMatrixRow holds the schema definition for the llm_route_matrix
// table (spec §3.7, §4.9): the per-category routing decision keyed by
// (scope, required_level, difficulty, availability, effort).
type LLMRouteMatrixRow struct {
	ent.Schema
}

func (LLMRouteMatrixRow) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").StorageKey("route_id").Unique().Immutable(),
		field.String("category").Immutable(),
		field.String("scope").Immutable(),
		field.String("required_level").Immutable(),
		field.String("difficulty").Immutable(),
		field.String("availability").Immutable(),
		field.Int("effort").Immutable(),
		field.JSON("model_ladder", []string{}),
		field.Bool("all_source_data").Default(false),
		field.Bool("enable_websearch").Default(false),
		field.Int("max_tokens"),
		field.String("send_packet"),
		field.Int("min_evidence_refs_required"),
		field.String("insufficient_evidence_action"),
	}
}

func (LLMRouteMatrixRow) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("category", "scope", "required_level"),
	}
}
