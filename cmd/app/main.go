package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sqliteadapter "github.com/Mielola/api-photobooth/internal/adapters/db/sqlite"
	httpadapter "github.com/Mielola/api-photobooth/internal/adapters/http"
	rpcadapter "github.com/Mielola/api-photobooth/internal/adapters/rpcjson"
	"github.com/Mielola/api-photobooth/internal/application"
	"github.com/Mielola/api-photobooth/internal/adapters/blob"
	"github.com/Mielola/api-photobooth/internal/logging"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "photobooth",
		Usage: "Photobooth event backend server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			eventsCommand(),
			sessionsCommand(),
			photosCommand(),
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type serverConfig struct {
	addr              string
	rpcSocket         string
	dbPath            string
	storageRoot       string
	baseURL           string
	scratchDir        string
	sessionMinutes    int
	allowRevive       bool
	bootstrapEmail    string
	bootstrapPassword string
	logLevel          string
	logConsole        bool
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server and JSON-RPC socket",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/photobooth.sock", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Value: "photobooth.db", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "storage-root", Value: "storage", Usage: "blob storage root directory"},
			&cli.StringFlag{Name: "base-url", Value: "http://127.0.0.1:8080", Usage: "public base URL for blob links"},
			&cli.StringFlag{Name: "scratch-dir", Value: "tmp", Usage: "scratch directory for zip archives"},
			&cli.IntFlag{Name: "session-minutes", Value: 10, Usage: "booth session duration in minutes"},
			&cli.BoolFlag{Name: "allow-revive-expired", Usage: "allow extending or emailing an already expired session"},
			&cli.StringFlag{Name: "bootstrap-admin-email", Value: "admin@photobooth.local", Usage: "initial admin email"},
			&cli.StringFlag{Name: "bootstrap-admin-password", Value: "admin", Usage: "initial admin password"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "log level"},
			&cli.BoolFlag{Name: "log-console", Usage: "human readable log output"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, serverConfig{
				addr:              c.String("addr"),
				rpcSocket:         c.String("rpc-socket"),
				dbPath:            c.String("db-path"),
				storageRoot:       c.String("storage-root"),
				baseURL:           c.String("base-url"),
				scratchDir:        c.String("scratch-dir"),
				sessionMinutes:    c.Int("session-minutes"),
				allowRevive:       c.Bool("allow-revive-expired"),
				bootstrapEmail:    c.String("bootstrap-admin-email"),
				bootstrapPassword: c.String("bootstrap-admin-password"),
				logLevel:          c.String("log-level"),
				logConsole:        c.Bool("log-console"),
			})
		},
	}
}

func runServer(ctx context.Context, cfg serverConfig) error {
	log := logging.New(cfg.logLevel, cfg.logConsole)

	db, err := sqliteadapter.Open(ctx, cfg.dbPath)
	if err != nil {
		return err
	}

	blobs, err := blob.NewDiskStore(cfg.storageRoot, cfg.baseURL)
	if err != nil {
		return err
	}

	repo := sqliteadapter.NewRepository(db)
	service := application.NewBoothService(repo, blobs, application.SystemClock(), log, application.Config{
		SessionDuration:           time.Duration(cfg.sessionMinutes) * time.Minute,
		AllowReviveExpiredSession: cfg.allowRevive,
		ScratchDir:                cfg.scratchDir,
	})
	if err := service.BootstrapAdmin(ctx, cfg.bootstrapEmail, cfg.bootstrapPassword); err != nil {
		return err
	}

	router := httpadapter.NewRouter(service, blobs.Root(), log)
	srv := &http.Server{Addr: cfg.addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(cfg.rpcSocket, service)
	if err != nil {
		return err
	}
	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Info().Str("socket", cfg.rpcSocket).Msg("json-rpc listening")

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/photobooth.sock"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "token-name", Value: "cli"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string `json:"token"`
						Email string `json:"email"`
					}
					if err := doLogin(ctx, cfg, c.String("email"), c.String("password"), c.String("token-name"), &out); err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Email)
					return nil
				},
			},
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Event management",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List events",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search"},
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "per-page", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out eventsListResult
					if err := doEventsList(ctx, cfg, c.String("search"), c.Int("page"), c.Int("per-page"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEvents(out.Events)
					return nil
				},
			},
			{
				Name:  "set-status",
				Usage: "Change an event's status",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.StringFlag{Name: "status", Required: true, Usage: "active, maintenance or inactive"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out eventResult
					if err := doEventsSetStatus(ctx, cfg, c.String("uid"), c.String("status"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printEvent(out)
					return nil
				},
			},
			{
				Name:  "reset-session",
				Usage: "Force-expire the event's latest booth session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out sessionResult
					if err := doEventsResetSession(ctx, cfg, c.String("uid"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSession(out)
					return nil
				},
			},
		},
	}
}

func sessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Booth session management",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sessions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1},
					&cli.IntFlag{Name: "per-page", Value: 20},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out sessionsListResult
					if err := doSessionsList(ctx, cfg, c.Int("page"), c.Int("per-page"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSessions(out.Sessions)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "Check a session's countdown",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uid", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out sessionCheckResult
					if err := doSessionsCheck(ctx, cfg, c.String("uid"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printSessionCheck(out)
					return nil
				},
			},
		},
	}
}

func photosCommand() *cli.Command {
	return &cli.Command{
		Name:  "photos",
		Usage: "Photo management",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List photos of a session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "session-uid", Required: true},
					&cli.StringFlag{Name: "kind", Usage: "original or framed"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out photosListResult
					if err := doPhotosList(ctx, cfg, c.String("session-uid"), c.String("kind"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printPhotos(out.Photos)
					return nil
				},
			},
		},
	}
}
