package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SourceRegistry holds the schema definition for the source_registry table
// (spec §6.3): one fetched (or synthetic helper) source per run.
type SourceRegistry struct {
	ent.Schema
}

func (SourceRegistry) Fields() []ent.Field {
	return []ent.Field{
		field.String("source_id").StorageKey("source_id").Unique().Immutable(),
		field.String("run_id").Immutable(),
		field.String("product_id").Immutable(),
		field.String("category").Immutable(),
		field.String("url").Immutable(),
		field.String("final_url").Optional(),
		field.String("host").Immutable(),
		field.String("root_domain").Immutable(),
		field.Int("tier"),
		field.String("role").Optional(),
		field.Time("fetched_at").Default(time.Now),
		field.Int("http_status").Optional(),
		field.String("fetch_method"),
		field.String("content_hash").Optional(),
		field.String("text_hash").Optional(),
		field.Bool("synthetic").Default(false),
		field.String("fetch_outcome").Optional(),
	}
}

func (SourceRegistry) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("product_id", "run_id"),
		index.Fields("host"),
	}
}
