package nanograph

import (
	"github.com/arthur-debert/nanograph/nanograph/query"
	"github.com/arthur-debert/nanograph/nanograph/schema"
	"github.com/arthur-debert/nanograph/types"
)

// Re-export types from the types package for convenience
type Value = types.Value

// Record is an alias for types.Record
type Record = types.Record

// Collection is an alias for types.Collection
type Collection = types.Collection

// NormalizedData is an alias for types.NormalizedData
type NormalizedData = types.NormalizedData

// Query is an alias for query.Query
type Query = query.Query

// Schema types

// Model is an alias for schema.Model
type Model = schema.Model

// Registry is an alias for schema.Registry
type Registry = schema.Registry

// Instance is an alias for schema.Instance
type Instance = schema.Instance

// Load is an alias for schema.Load
type Load = schema.Load

// Fields is an alias for schema.Fields
type Fields = schema.Fields

// Definer is an alias for schema.Definer
type Definer = schema.Definer

// Mutator is an alias for schema.Mutator
type Mutator = schema.Mutator

// Mutators is an alias for schema.Mutators
type Mutators = schema.Mutators

// SchemaConfig is an alias for schema.Config
type SchemaConfig = schema.Config

// Schema helpers
var (
	NewModel       = schema.NewModel
	NewRegistry    = schema.NewRegistry
	MustBoot       = schema.MustBoot
	WithPrimaryKey = schema.WithPrimaryKey
	WithMutators   = schema.WithMutators
	Mutate         = schema.Mutate
	Of             = schema.Of
	Named          = schema.Named
	NewLoad        = schema.NewLoad
	ParseWith      = schema.ParseWith
)
