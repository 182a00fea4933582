package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/Decentr-net/logrus/sentry"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/health"
	"github.com/yatube-net/yatube/internal/storage"
	"github.com/yatube-net/yatube/internal/storage/postgres"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Fixture            string `long:"fixture" env:"FIXTURE" default:"fixtures.json" description:"path to fixture"`
	Postgres           string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMigrations string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`
	SentryDSN          string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

type fixture struct {
	Groups []struct {
		Title       string `json:"title"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	} `json:"groups"`
	BannedWords []string `json:"banned_words"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "fixtures2db"
	parser.LongDescription = "Groups and banned words importer"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "fixtures2db",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	}

	logrus.Info("fixtures2db started")
	logrus.WithFields(logrus.Fields{
		"fixture":    opts.Fixture,
		"migrations": opts.PostgresMigrations,
	}).Info("options")

	b, err := ioutil.ReadFile(opts.Fixture)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read fixture")
	}

	var f fixture

	if err := json.Unmarshal(b, &f); err != nil {
		logrus.WithError(err).Fatal("failed to unmarshal fixture")
	}

	db := mustGetDB()

	if err := load(context.Background(), postgres.New(db), f); err != nil {
		logrus.WithError(err).Fatal("failed to load fixture")
	}

	logrus.Info("done")
}

// load puts fixture into storage. Existing groups and words are skipped.
func load(ctx context.Context, s storage.Storage, f fixture) error {
	groups := 0
	for _, v := range f.Groups {
		err := s.CreateGroup(ctx, &entities.Group{
			Title:       v.Title,
			Slug:        v.Slug,
			Description: v.Description,
		})

		switch {
		case err == nil:
			groups++
		case errors.Is(err, storage.ErrAlreadyExists):
			logrus.WithField("slug", v.Slug).Debug("group already exists")
		default:
			return fmt.Errorf("failed to put group %s into db: %w", v.Slug, err)
		}
	}
	logrus.Infof("%d of %d groups imported", groups, len(f.Groups))

	words := 0
	for _, v := range f.BannedWords {
		err := s.AddBannedWord(ctx, entities.BannedWord(v))

		switch {
		case err == nil:
			words++
		case errors.Is(err, storage.ErrAlreadyExists):
			logrus.WithField("word", v).Debug("banned word already exists")
		default:
			return fmt.Errorf("failed to put banned word %s into db: %w", v, err)
		}
	}
	logrus.Infof("%d of %d banned words imported", words, len(f.BannedWords))

	return nil
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}

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
