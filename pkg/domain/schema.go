package domain

import "time"

// CanonicalSchema is a versioned, organisation-independent target data shape
// that a Project's output must conform to. Schemas are global: there is no
// organisation scoping and no soft-delete (a schema referenced by any project
// cannot be removed; the store enforces this with a referential restrict).
type CanonicalSchema struct {
	Id   string
	Name string

	// published revision number of the schema. (Name, Version) is unique.
	Version int

	SchemaDefinition Config

	// counts replacements of SchemaDefinition. Starts at 1.
	SchemaDefinitionVersion int

	Description string
	IsPublished bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type NewCanonicalSchema struct {
	Name             string
	Version          int
	SchemaDefinition Config
	Description      string
	IsPublished      bool
}

type CanonicalSchemaUpdate struct {
	Description *string

	// when ReplaceSchemaDefinition is true, SchemaDefinition is written and
	// SchemaDefinitionVersion increments by one.
	ReplaceSchemaDefinition bool
	SchemaDefinition        Config

	IsPublished *bool
}

func (u CanonicalSchemaUpdate) IsEmpty() bool {
	return u.Description == nil && !u.ReplaceSchemaDefinition && u.IsPublished == nil
}

type CanonicalSchemaFindQuery struct {
	IsPublished *bool
	Page        int
	Limit       int
}
