package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Candidate holds the schema definition for the candidates table (spec
// §6.3): one (field, value) observation from one source, before
// consensus. Documentation-only — the Spec DB repository in pkg/specdb
// issues raw SQL against this shape directly; no ent client is generated.
type Candidate struct {
	ent.Schema
}

func (Candidate) Fields() []ent.Field {
	return []ent.Field{
		field.String("candidate_id").
			StorageKey("candidate_id").
			Unique().
			Immutable().
			Comment("sha256(field|normalized_value|method|key_path)"),
		field.String("run_id").Immutable(),
		field.String("product_id").Immutable(),
		field.String("category").Immutable(),
		field.String("source_id").Immutable(),
		field.String("field").Immutable(),
		field.String("scope").Immutable().Comment("scalar | component | list"),
		field.String("value_scalar").Optional(),
		field.JSON("value_list", []string{}).Optional(),
		field.String("method").Immutable(),
		field.String("key_path").Optional(),
		field.Float("confidence_base"),
		field.JSON("evidence_refs", []string{}),
		field.String("page_product_cluster_id").Optional(),
		field.Float("target_match_score").Optional(),
		field.Bool("target_match_passed").Default(false),
	}
}

func (Candidate) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("product_id", "field"),
		index.Fields("run_id"),
	}
}
