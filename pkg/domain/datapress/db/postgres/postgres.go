package postgres

import (
	"context"

	dpool "github.com/datapress/datapress/pkg/conn/db/postgres/pool"
	dschema "github.com/datapress/datapress/pkg/db/postgres/schema"
	dbInterface "github.com/datapress/datapress/pkg/domain/datapress/db"
	datasetdb "github.com/datapress/datapress/pkg/domain/dataset/db"
	pgdataset "github.com/datapress/datapress/pkg/domain/dataset/db/postgres"
	jobdb "github.com/datapress/datapress/pkg/domain/job/db"
	pgjob "github.com/datapress/datapress/pkg/domain/job/db/postgres"
	orgdb "github.com/datapress/datapress/pkg/domain/organisation/db"
	pgorg "github.com/datapress/datapress/pkg/domain/organisation/db/postgres"
	projectdb "github.com/datapress/datapress/pkg/domain/project/db"
	pgproject "github.com/datapress/datapress/pkg/domain/project/db/postgres"
	schemadb "github.com/datapress/datapress/pkg/domain/schema/db"
	pgschema "github.com/datapress/datapress/pkg/domain/schema/db/postgres"
	sourcedb "github.com/datapress/datapress/pkg/domain/source/db"
	pgsource "github.com/datapress/datapress/pkg/domain/source/db/postgres"
	userdb "github.com/datapress/datapress/pkg/domain/user/db"
	pguser "github.com/datapress/datapress/pkg/domain/user/db/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
)

type datapressDBPostgres struct {
	pool *pgxpool.Pool

	organisation  orgdb.Interface
	user          userdb.Interface
	schema        schemadb.Interface
	project       projectdb.Interface
	source        sourcedb.Interface
	job           jobdb.Interface
	dataset       datasetdb.Interface
	schemaVersion dschema.Schema
}

type Config struct {
	SchemaRepository string
}

type Option func(*Config) *Config

func WithSchemaRepository(repository string) Option {
	return func(c *Config) *Config {
		c.SchemaRepository = repository
		return c
	}
}

func New(ctx context.Context, url string, options ...Option) (dbInterface.Database, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	c := Config{}
	for _, option := range options {
		c = *option(&c)
	}

	p := dpool.Wrap(pool)
	var schemaVersion dschema.Schema = dschema.Null()
	if c.SchemaRepository != "" {
		schemaVersion = dschema.New(p, c.SchemaRepository)
	}

	return &datapressDBPostgres{
		pool:          pool,
		organisation:  pgorg.New(p),
		user:          pguser.New(p),
		schema:        pgschema.New(p),
		project:       pgproject.New(p),
		source:        pgsource.New(p),
		job:           pgjob.New(p),
		dataset:       pgdataset.New(p),
		schemaVersion: schemaVersion,
	}, nil
}

func (d *datapressDBPostgres) Organisation() orgdb.Interface {
	return d.organisation
}

func (d *datapressDBPostgres) User() userdb.Interface {
	return d.user
}

func (d *datapressDBPostgres) Schema() schemadb.Interface {
	return d.schema
}

func (d *datapressDBPostgres) Project() projectdb.Interface {
	return d.project
}

func (d *datapressDBPostgres) Source() sourcedb.Interface {
	return d.source
}

func (d *datapressDBPostgres) Job() jobdb.Interface {
	return d.job
}

func (d *datapressDBPostgres) Dataset() datasetdb.Interface {
	return d.dataset
}

func (d *datapressDBPostgres) SchemaVersion() dschema.Schema {
	return d.schemaVersion
}

func (d *datapressDBPostgres) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

func (d *datapressDBPostgres) Close() error {
	d.pool.Close()
	return nil
}
