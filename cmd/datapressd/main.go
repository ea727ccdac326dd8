package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/datapress/datapress/cmd/datapressd/handlers"
	"github.com/datapress/datapress/pkg/auth"
	"github.com/datapress/datapress/pkg/blob/factory"
	configs "github.com/datapress/datapress/pkg/configs/server"
	"github.com/datapress/datapress/pkg/connectors/teamworkdesk"
	"github.com/datapress/datapress/pkg/crypt"
	dppg "github.com/datapress/datapress/pkg/domain/datapress/db/postgres"
	"github.com/datapress/datapress/pkg/metrics"
	"github.com/datapress/datapress/pkg/utils/echoutil"
	"github.com/datapress/datapress/pkg/utils/filewatch"
)

func main() {
	// a .env file, when present, feeds the env overrides below.
	godotenv.Load()

	configPath := flag.String("config-path", "", "server config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogRequests)

	conf, err := configs.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}

	jwtSecret := conf.Auth.JWTSecret
	if v := os.Getenv("DATAPRESS_JWT_SECRET"); v != "" {
		jwtSecret = v
	}
	if jwtSecret == "" {
		log.Fatal("jwt secret is not configured (auth.jwtSecret or DATAPRESS_JWT_SECRET)")
	}

	encKeyHex := conf.Auth.EncryptionKey
	if v := os.Getenv("DATAPRESS_ENCRYPTION_KEY"); v != "" {
		encKeyHex = v
	}
	var encKey *crypt.Key // nil = store credentials as tagged plaintext
	if encKeyHex != "" {
		if encKey, err = crypt.ParseKey(encKeyHex); err != nil {
			log.Fatalf("bad encryption key: %s", err)
		}
	}

	// the server restarts (via its supervisor) on config change.
	watchCtx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
	if err != nil {
		log.Fatalf("can not watch configuration: %s", err)
	}
	defer cancel()
	context.AfterFunc(watchCtx, func() {
		log.Println("config file is updated. quit to restart server.")
		graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := e.Shutdown(graceful); err != nil {
			log.Printf("error on shutdown by config update: %s", err)
		}
	})

	ctx := context.Background()
	options := []dppg.Option{}
	if conf.SchemaRepository != "" {
		options = append(options, dppg.WithSchemaRepository(conf.SchemaRepository))
	}
	db, err := dppg.New(ctx, conf.DBURI, options...)
	if err != nil {
		log.Fatalf("can not connect to database: %s", err)
	}
	defer db.Close()

	if conf.SchemaRepository != "" {
		if err := db.SchemaVersion().Upgrade(ctx); err != nil {
			log.Fatalf("can not upgrade database schema: %s", err)
		}
		schemaCtx, stop := db.SchemaVersion().Context(ctx)
		defer stop()
		context.AfterFunc(schemaCtx, func() {
			log.Println("database schema is outdated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by schema update: %s", err)
			}
		})
	}

	blobStore, err := factory.Open(ctx, conf.Blob)
	if err != nil {
		log.Fatalf("can not open blob store: %s", err)
	}

	twdeskOptions := []teamworkdesk.Option{}
	if conf.TeamworkDesk.BaseURL != "" {
		twdeskOptions = append(twdeskOptions, teamworkdesk.WithBaseURL(conf.TeamworkDesk.BaseURL))
	}
	twdesk := teamworkdesk.New(twdeskOptions...)

	issuer := auth.NewIssuer([]byte(jwtSecret), conf.Auth.TokenExpiryOrDefault())
	rec := metrics.New()
	e.Use(rec.Middleware())

	maxFileSize := conf.Uploads.MaxFileSizeOrDefault()

	e.GET("/metrics/", rec.Handler())
	e.GET("/api/health/", handlers.HealthHandler(db))

	{
		e.POST("/api/auth/signup/", handlers.SignupHandler(db.Organisation(), issuer))
		e.POST("/api/auth/login/", handlers.LoginHandler(db.User(), issuer))
		e.POST("/api/auth/register/", handlers.RegisterHandler(db.User(), issuer))
	}

	api := e.Group("/api", auth.Middleware(issuer))

	{
		api.GET("/auth/session/", handlers.SessionHandler(db.User()))
	}

	{
		api.GET("/organisations/me/", handlers.GetOrganisationHandler(db.Organisation()))
		api.PATCH("/organisations/me/",
			handlers.UpdateOrganisationHandler(db.Organisation()), auth.RequireAdmin)
		api.DELETE("/organisations/me/",
			handlers.DeleteOrganisationHandler(db.Organisation()), auth.RequireAdmin)
	}

	{
		api.GET("/users/", handlers.FindUserHandler(db.User()))
		api.POST("/users/invite/",
			handlers.InviteUserHandler(db.User(), conf.Auth.InviteExpiryOrDefault()),
			auth.RequireAdmin)
		api.GET("/users/:userId/", handlers.GetUserHandler(db.User()))
		api.PATCH("/users/:userId/", handlers.UpdateUserHandler(db.User()), auth.RequireAdmin)
		api.DELETE("/users/:userId/", handlers.DeleteUserHandler(db.User()), auth.RequireAdmin)
	}

	{
		api.POST("/canonical-schemas/", handlers.CreateSchemaHandler(db.Schema()), auth.RequireAdmin)
		api.GET("/canonical-schemas/", handlers.FindSchemaHandler(db.Schema()))
		api.GET("/canonical-schemas/:schemaId/", handlers.GetSchemaHandler(db.Schema()))
		api.PATCH("/canonical-schemas/:schemaId/",
			handlers.UpdateSchemaHandler(db.Schema()), auth.RequireAdmin)
	}

	{
		api.POST("/projects/", handlers.CreateProjectHandler(db.Project()))
		api.GET("/projects/", handlers.FindProjectHandler(db.Project()))
		api.GET("/projects/:projectId/", handlers.GetProjectHandler(db.Project()))
		api.PATCH("/projects/:projectId/", handlers.UpdateProjectHandler(db.Project()))
		api.DELETE("/projects/:projectId/", handlers.DeleteProjectHandler(db.Project()))

		api.GET("/projects/:projectId/sources/",
			handlers.FindProjectSourcesHandler(db.Project(), db.Source()))
		api.GET("/projects/:projectId/processing-jobs/",
			handlers.FindProjectJobsHandler(db.Project(), db.Job()))
		api.GET("/projects/:projectId/datasets/",
			handlers.FindProjectDatasetsHandler(db.Project(), db.Dataset()))
	}

	{
		api.POST("/sources/", handlers.CreateSourceHandler(db.Source(), blobStore, maxFileSize))
		api.GET("/sources/", handlers.FindSourceHandler(db.Source()))
		api.GET("/sources/:sourceId/", handlers.GetSourceHandler(db.Source()))
		api.PATCH("/sources/:sourceId/", handlers.UpdateSourceHandler(db.Source()))
		api.DELETE("/sources/:sourceId/", handlers.DeleteSourceHandler(db.Source()))
	}

	{
		api.POST("/processing-jobs/", handlers.CreateJobHandler(db.Job(), rec))
		api.GET("/processing-jobs/", handlers.FindJobHandler(db.Job()))
		api.GET("/processing-jobs/:jobId/", handlers.GetJobHandler(db.Job()))
		api.POST("/processing-jobs/:jobId/retry/", handlers.RetryJobHandler(db.Job(), rec))

		// worker transitions are not organisation-scoped; the worker
		// runs with an admin service account.
		api.PUT("/processing-jobs/:jobId/pick/",
			handlers.PickJobHandler(db.Job(), "jobId"), auth.RequireAdmin)
		api.PUT("/processing-jobs/:jobId/complete/",
			handlers.CompleteJobHandler(db.Job(), "jobId", rec), auth.RequireAdmin)
		api.PUT("/processing-jobs/:jobId/fail/",
			handlers.FailJobHandler(db.Job(), "jobId", rec), auth.RequireAdmin)
	}

	{
		api.GET("/datasets/", handlers.FindDatasetHandler(db.Dataset()))
		api.GET("/datasets/:datasetId/", handlers.GetDatasetHandler(db.Dataset()))
		api.GET("/datasets/:datasetId/download/",
			handlers.DownloadDatasetHandler(db.Dataset(), blobStore))
		api.DELETE("/datasets/:datasetId/", handlers.DeleteDatasetHandler(db.Dataset()))
	}

	{
		api.POST("/integrations/teamwork-desk/test-connection/",
			handlers.TestTeamworkDeskConnectionHandler(twdesk))
		api.POST("/integrations/teamwork-desk/sources/",
			handlers.CreateTeamworkDeskSourceHandler(db.Source(), twdesk, encKey))
	}

	log.Println("registered routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+conf.ServerPort, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + conf.ServerPort))
	}
}
