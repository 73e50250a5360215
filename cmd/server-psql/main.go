package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/chi-demo/app"

	"github.com/tendant/simple-datastore/pkg/datastore"
	"github.com/tendant/simple-datastore/pkg/datastore/api"
	repopg "github.com/tendant/simple-datastore/pkg/datastore/repo/postgres"
	s3storage "github.com/tendant/simple-datastore/pkg/datastore/storage/s3"
)

type Config struct {
	DB        DbConfig
	S3        S3Config
	JwtSecret string `env:"JWT_SECRET" env-default:""`
}

type DbConfig struct {
	Port     uint16 `env:"DATASTORE_PG_PORT" env-default:"5432"`
	Host     string `env:"DATASTORE_PG_HOST" env-default:"localhost"`
	Name     string `env:"DATASTORE_PG_NAME" env-default:"datastore_db"`
	User     string `env:"DATASTORE_PG_USER" env-default:"datastore"`
	Password string `env:"DATASTORE_PG_PASSWORD" env-default:"pwd"`
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"datastore-bucket"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"true"`
}

func (c DbConfig) toDatabaseUrl() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

func NewDbPool(ctx context.Context, dbConfig DbConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dbConfig.toDatabaseUrl())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func newBlobStore(config S3Config) (datastore.BlobStore, error) {
	return s3storage.New(s3storage.Config{
		Endpoint:               config.Endpoint,
		AccessKeyID:            config.AccessKeyID,
		SecretAccessKey:        config.SecretAccessKey,
		Bucket:                 config.BucketName,
		Region:                 config.Region,
		UsePathStyle:           config.UsePathStyle,
		CreateBucketIfNotExist: false,
		PresignDuration:        3600, // 1 hour
	})
}

func main() {
	var config Config
	if err := cleanenv.ReadEnv(&config); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	dbPool, err := NewDbPool(ctx, config.DB)
	if err != nil {
		slog.Error("Failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	blobStore, err := newBlobStore(config.S3)
	if err != nil {
		slog.Error("Failed to initialize S3 backend", "err", err)
		os.Exit(1)
	}

	svc, err := datastore.New(
		datastore.WithRepository(repopg.NewWithPool(dbPool)),
		datastore.WithBlobStore(blobStore),
		datastore.WithEventSink(datastore.NewLogEventSink(slog.Default())),
	)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	server := app.DefaultWithoutRoutes()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	contentHandler := api.NewContentHandler(svc)
	projectHandler := api.NewProjectHandler(svc)

	server.R.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if config.JwtSecret != "" {
				tokenAuth := api.NewTokenAuth(config.JwtSecret)
				r.Use(api.Verifier(tokenAuth))
				r.Use(api.TenantAuthenticator)
			} else {
				r.Use(api.StaticTenant("dev"))
			}
			r.Mount("/datastore/content", contentHandler.Routes())
			r.Get("/datastore/search", contentHandler.SearchContent)
			r.Mount("/projects", projectHandler.Routes())
		})
	})

	server.Run()
}
