package db

import (
	"context"

	dschema "github.com/datapress/datapress/pkg/db/postgres/schema"
	datasetdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	jobdb "github.com/datapress/datapress/pkg/domain/job/db"
	orgdb "github.com/datapress/datapress/pkg/domain/organisation/db"
	projectdb "github.com/datapress/datapress/pkg/domain/project/db"
	schemadb "github.com/datapress/datapress/pkg/domain/schema/db"
	sourcedb "github.com/datapress/datapress/pkg/domain/source/db"
	userdb "github.com/datapress/datapress/pkg/domain/user/db"
)

// Database is the set of entity stores backing a datapress instance.
type Database interface {
	Organisation() orgdb.Interface
	User() userdb.Interface
	Schema() schemadb.Interface
	Project() projectdb.Interface
	Source() sourcedb.Interface
	Job() jobdb.Interface
	Dataset() datasetdb.Interface

	// SchemaVersion manages the database schema itself.
	SchemaVersion() dschema.Schema

	// Ping probes the backing database, for liveness checks.
	Ping(ctx context.Context) error

	Close() error
}
