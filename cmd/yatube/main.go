package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Decentr-net/logrus/sentry"

	"github.com/yatube-net/yatube/internal/auth"
	"github.com/yatube-net/yatube/internal/blob"
	"github.com/yatube-net/yatube/internal/blob/fs"
	"github.com/yatube-net/yatube/internal/blob/s3"
	"github.com/yatube-net/yatube/internal/health"
	"github.com/yatube-net/yatube/internal/server"
	"github.com/yatube-net/yatube/internal/service/impl"
	"github.com/yatube-net/yatube/internal/storage/postgres"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host            string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port            int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections"`
	RequestTimeout  time.Duration `long:"http.request-timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`
	ShutdownTimeout time.Duration `long:"http.shutdown-timeout" env:"HTTP_SHUTDOWN_TIMEOUT" default:"10s" description:"graceful shutdown timeout"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	SessionSecret string `long:"session.secret" env:"SESSION_SECRET" required:"true" description:"secret used to sign session cookies"`
	SessionMaxAge int    `long:"session.max_age" env:"SESSION_MAX_AGE" default:"1209600" description:"session lifetime in seconds"`
	SessionSecure bool   `long:"session.secure" env:"SESSION_SECURE" description:"send session cookie over https only"`

	Blob         string `long:"blob" env:"BLOB" default:"fs" description:"images storage" choice:"fs" choice:"s3"`
	BlobFSRoot   string `long:"blob.fs.root" env:"BLOB_FS_ROOT" default:"media" description:"directory for images"`
	BlobFSPrefix string `long:"blob.fs.prefix" env:"BLOB_FS_PREFIX" default:"/media" description:"url prefix images are served under"`
	S3Bucket     string `long:"blob.s3.bucket" env:"BLOB_S3_BUCKET" description:"s3 bucket"`
	S3Region     string `long:"blob.s3.region" env:"BLOB_S3_REGION" default:"us-east-1" description:"s3 region"`
	S3Endpoint   string `long:"blob.s3.endpoint" env:"BLOB_S3_ENDPOINT" description:"s3 compatible endpoint, empty means aws"`
	S3PublicURL  string `long:"blob.s3.public_url" env:"BLOB_S3_PUBLIC_URL" description:"base url of uploaded images"`

	IndexCacheTTL time.Duration `long:"cache.index_ttl" env:"CACHE_INDEX_TTL" default:"20s" description:"lifetime of cached index pages"`

	LogLevel  string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
	SentryDSN string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Yatube"
	parser.LongDescription = "Yatube blog server"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "yatube",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	} else {
		logrus.Info("empty sentry dsn")
		logrus.Warn("skip sentry initialization")
	}

	db := mustGetDB()
	s := postgres.New(db)
	b, media := mustGetBlobStore()

	r := chi.NewMux()
	server.SetupRouter(
		impl.New(s, b),
		auth.New(s, auth.Options{
			Secret: []byte(opts.SessionSecret),
			MaxAge: opts.SessionMaxAge,
			Secure: opts.SessionSecure,
		}),
		r,
		server.Options{
			Timeout:       opts.RequestTimeout,
			IndexCacheTTL: opts.IndexCacheTTL,
			Media:         media,
		},
	)
	r.Get("/health", health.Handler(
		5*time.Second,
		health.SubjectPinger("postgres", s.Ping),
	))

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	gr, _ := errgroup.WithContext(context.Background())
	gr.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		ctx, cancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logrus.WithError(err).Error("failed to gracefully shutdown server")
		}

		return errTerminated
	})

	logrus.Info("service started")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}

// mustGetBlobStore returns images storage and, for the fs backend, a handler serving stored files.
func mustGetBlobStore() (blob.Store, http.Handler) {
	switch opts.Blob {
	case "s3":
		b, err := s3.New(s3.Options{
			Bucket:    opts.S3Bucket,
			Region:    opts.S3Region,
			Endpoint:  opts.S3Endpoint,
			PublicURL: opts.S3PublicURL,
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to create s3 blob store")
		}
		return b, nil
	default:
		if err := os.MkdirAll(opts.BlobFSRoot, 0o755); err != nil {
			logrus.WithError(err).Fatal("failed to create media directory")
		}
		return fs.New(opts.BlobFSRoot, opts.BlobFSPrefix), http.FileServer(http.Dir(opts.BlobFSRoot))
	}
}
