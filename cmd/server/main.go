package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	eventsync "github.com/IRJ12/Event-Sync-Co"
)

func main() {
	cfg := eventsync.LoadConfig()

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := eventsync.CreateTables(ctx, db); err != nil {
		log.Fatal(err)
	}

	repo := eventsync.NewRepositoryManager(db)

	audit := eventsync.ActivitySinkFunc(func(ctx context.Context, event eventsync.ActivityEvent) error {
		log.Printf("activity %s user=%s object=%s", event.EventType, event.UserID, event.ObjectID)
		return nil
	})

	provider := eventsync.NewUserProvider(repo.Users()).WithActivitySink(audit)
	auther := eventsync.NewAuthenticator(provider, cfg)

	httpAuth, err := eventsync.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		log.Fatal(err)
	}

	codec := eventsync.NewTokenCodec([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), nil)

	var mailer eventsync.Mailer
	if cfg.SMTP.Username != "" {
		mailer = eventsync.NewSMTPMailer(cfg.SMTP)
	} else {
		mailer = eventsync.NewLogMailer(nil)
	}

	engine := django.New("./views", ".html")
	for name, fn := range eventsync.TemplateHelpers() {
		engine.AddFunc(name, fn)
	}

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	eventsync.RegisterAuthRoutes(srv.Router(),
		eventsync.WithControllerRepo(repo),
		eventsync.WithControllerAuther(httpAuth),
		eventsync.WithControllerCodec(codec),
		eventsync.WithControllerMailer(mailer),
		eventsync.WithControllerConfig(cfg),
		eventsync.WithControllerDeterministicIDs(cfg.DeterministicIDs),
	)

	eventsync.RegisterEventRoutes(srv.Router(),
		eventsync.WithEventsRepo(repo),
		eventsync.WithEventsAuther(httpAuth),
		eventsync.WithEventsConfig(cfg),
		eventsync.WithEventsActivitySink(audit),
	)

	go func() {
		if err := srv.Serve(cfg.ServerAddr); err != nil {
			log.Fatal(err)
		}
	}()

	waitExitSignal()
}

func waitExitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
