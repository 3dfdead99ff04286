package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"print-bridge/internal/config"
	"print-bridge/internal/directory"
	"print-bridge/internal/events"
	"print-bridge/internal/http/handler"
	"print-bridge/internal/http/middleware"
	"print-bridge/internal/queue"
	"print-bridge/internal/realtime"
	"print-bridge/internal/receipt"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	config.LoadEnv()
	cfg := config.Load()
	config.SetupLogger(cfg.LogLevel, cfg.LogFormat)

	if cfg.JWTSecret == "" || cfg.BasicAuthUser == "" || cfg.BasicAuthPass == "" {
		log.Fatal().Msg("JWT_SECRET, BASIC_AUTH_USER and BASIC_AUTH_PASS must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var mysqlDB *sql.DB
	openMySQL := func() *sql.DB {
		if mysqlDB != nil {
			return mysqlDB
		}
		db, err := config.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("mysql unavailable")
		}
		mysqlDB = db
		closers = append(closers, func() { db.Close() })
		return db
	}

	dir := newDirectory(cfg, openMySQL)
	store := newStore(ctx, cfg, openMySQL, &closers)

	hub := realtime.NewHub(realtime.DefaultDebounce)
	closers = append(closers, hub.Close)
	opts := []queue.Option{queue.WithNotifier(hub)}

	if cfg.AMQPURL != "" {
		conn, ch, err := events.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq unavailable")
		}
		closers = append(closers, func() { ch.Close(); conn.Close() })

		publisher, err := events.NewAMQPPublisher(ch, events.DefaultExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq setup failed")
		}
		opts = append(opts, queue.WithNotifier(publisher))
		log.Info().Str("exchange", events.DefaultExchange).Msg("job events enabled")
	}

	q := queue.New(store, dir, opts...)

	sweeper := queue.NewSweeper(q, cfg.Retention, cfg.SweepInterval)
	go sweeper.Run(ctx)

	printerCfg := receipt.DefaultConfig()
	printerCfg.Width = cfg.PrinterWidth
	if loc, err := time.LoadLocation(cfg.PrinterTimezone); err == nil {
		printerCfg.Location = loc
	} else {
		log.Warn().Err(err).Str("timezone", cfg.PrinterTimezone).Msg("unknown timezone, receipts use UTC")
	}
	if _, err := receipt.NewEncoder(printerCfg); err != nil {
		log.Fatal().Err(err).Msg("invalid printer configuration")
	}

	h := handler.New(handler.Config{
		Queue:     q,
		Directory: dir,
		Hub:       hub,
		Printer:   printerCfg,
		JWTSecret: cfg.JWTSecret,
		TokenTTL:  cfg.TabletTokenTTL,
	})

	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		BodyLimit:     1 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT",
	}))

	h.Register(app, handler.Auth{BasicUser: cfg.BasicAuthUser, BasicPass: cfg.BasicAuthPass})

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().
		Str("addr", cfg.Addr()).
		Str("store", cfg.StoreDriver).
		Str("directory", cfg.DirectoryDriver).
		Msg("print bridge listening")
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

func newDirectory(cfg config.Config, openMySQL func() *sql.DB) directory.Directory {
	switch cfg.DirectoryDriver {
	case "mysql":
		return directory.NewMySQL(openMySQL())
	case "file", "":
		dir, err := directory.LoadFile(cfg.RestaurantsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot load restaurants")
		}
		return dir
	default:
		log.Fatal().Str("driver", cfg.DirectoryDriver).Msg("unknown DIRECTORY_DRIVER")
		return nil
	}
}

func newStore(ctx context.Context, cfg config.Config, openMySQL func() *sql.DB, closers *[]func()) queue.Store {
	switch cfg.StoreDriver {
	case "memory", "":
		log.Warn().Msg("memory store: queued jobs are lost on restart")
		return queue.NewMemoryStore()

	case "redis":
		rdb, err := config.NewRedis(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		*closers = append(*closers, func() { rdb.Close() })
		return queue.NewRedisStore(rdb, cfg.RedisPrefix)

	case "mysql":
		store := queue.NewMySQLStore(openMySQL())
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("mysql schema")
		}
		return store

	case "postgres":
		pool, err := config.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres unavailable")
		}
		*closers = append(*closers, pool.Close)
		store := queue.NewPostgresStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres schema")
		}
		return store

	default:
		log.Fatal().Err(errors.New("unknown STORE_DRIVER")).Str("driver", cfg.StoreDriver).Send()
		return nil
	}
}
