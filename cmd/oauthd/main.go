package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dropDatabas3/hellojohn-oauth2/internal/app"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/config"
	httpserver "github.com/dropDatabas3/hellojohn-oauth2/internal/http"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/metrics"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/security/password"
	"github.com/dropDatabas3/hellojohn-oauth2/internal/store/pg"
	migrations "github.com/dropDatabas3/hellojohn-oauth2/migrations/postgres"
)

var version = "dev"

func main() {
	// .env opcional
	_ = godotenv.Load()

	configPath := os.Getenv("OAUTH_CONFIG")

	root := &cobra.Command{
		Use:           "oauthd",
		Short:         "Authorization server OAuth2",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Archivo YAML de configuración (env OAUTH_CONFIG)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logger.Init(logger.Config{
			Env:         cfg.App.Env,
			Level:       cfg.Log.Level,
			ServiceName: "oauthd",
			Version:     version,
		})
		return cfg, nil
	}

	root.AddCommand(
		serveCmd(load),
		migrateCmd(load),
		purgeCmd(load),
		hashSecretCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type loader func() (*config.Config, error)

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			log := logger.L().With(logger.Component("oauthd"))
			ctx = logger.ToContext(ctx, log)

			// Las métricas se registran antes de armar el router
			if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			rt, err := app.Build(ctx, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.PG != nil {
				if err := metrics.RegisterPool(prometheus.DefaultRegisterer, rt.PG.Pool()); err != nil {
					log.Warn("pool metrics not registered", logger.Err(err))
				}
			}

			srv := httpserver.NewServer(httpserver.ServerConfig{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     config.Duration(cfg.Server.ReadTimeout),
				WriteTimeout:    config.Duration(cfg.Server.WriteTimeout),
				ShutdownTimeout: config.Duration(cfg.Server.ShutdownTimeout),
			}, rt.App.Handler)
			return srv.Run(ctx)
		},
	}
}

// openPG abre el pool para los comandos de mantenimiento.
func openPG(ctx context.Context, cfg *config.Config) (*pg.Store, error) {
	if cfg.Storage.Driver != "postgres" {
		return nil, errors.New("storage.driver must be postgres")
	}
	return pg.Open(ctx, pg.Config{
		DSN:             cfg.Storage.DSN,
		MaxConns:        2,
		ConnMaxLifetime: config.Duration(cfg.Storage.Postgres.ConnMaxLifetime),
	})
}

func migrateCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones pendientes de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := openPG(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := st.Migrate(cmd.Context(), migrations.FS, migrations.Dir)
			if err != nil {
				return err
			}
			fmt.Printf("applied=%v skipped=%d took=%s\n", res.Applied, len(res.Skipped), res.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func purgeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Borra tokens y códigos vencidos de Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			st, err := openPG(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			now := time.Now().In(cfg.Location())
			toks, err := st.Tokens().PurgeExpired(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("purge tokens: %w", err)
			}
			codes, err := st.Codes().PurgeExpired(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("purge codes: %w", err)
			}
			fmt.Printf("tokens=%d codes=%d\n", toks, codes)
			return nil
		},
	}
}

func hashSecretCmd() *cobra.Command {
	var argon bool
	cmd := &cobra.Command{
		Use:   "hash-secret",
		Short: "Genera el hash de un client secret o password para los seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			plain, err := readSecret()
			if err != nil {
				return err
			}
			var h string
			if argon {
				h, err = password.HashArgon2id(password.DefaultArgon2, plain)
			} else {
				h, err = password.Hash(plain)
			}
			if err != nil {
				return err
			}
			fmt.Println(h)
			return nil
		},
	}
	cmd.Flags().BoolVar(&argon, "argon2id", false, "Usar argon2id en vez de bcrypt")
	return cmd
}

// readSecret lee sin eco si stdin es una terminal; si no, la primera línea.
func readSecret() (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Secret: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm: ")
	c, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(b) != string(c) {
		return "", errors.New("secrets do not match")
	}
	return string(b), nil
}
