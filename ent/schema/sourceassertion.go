package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SourceAssertion holds the schema definition for the source_assertions
// table (spec §6.3): the per-field, per-source identity-match and anchor
// agreement record produced by the Identity Gate.
type SourceAssertion struct {
	ent.Schema
}

func (SourceAssertion) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").StorageKey("assertion_id").Unique().Immutable(),
		field.String("source_id").Immutable(),
		field.String("product_id").Immutable(),
		field.String("field").Immutable().Comment("brand | model | variant | sku | mpn | gtin"),
		field.Bool("matched"),
		field.Float("score"),
	}
}

func (SourceAssertion) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("product_id", "source_id"),
	}
}

// SourceEvidenceRef holds the schema definition for the
// source_evidence_refs table (spec §6.3): the evidence-pack snippet IDs a
// candidate is bound to, for provenance replay.
type SourceEvidenceRef struct {
	ent.Schema
}

func (SourceEvidenceRef) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").StorageKey("evidence_ref_id").Unique().Immutable(),
		field.String("candidate_id").Immutable(),
		field.String("source_id").Immutable(),
		field.String("snippet_id").Immutable(),
		field.String("snippet_hash").Immutable(),
	}
}

func (SourceEvidenceRef) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("candidate_id"),
	}
}
