package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/kinobot/internal/admin"
	"github.com/soyeahso/kinobot/internal/channel"
	"github.com/soyeahso/kinobot/internal/channel/irc"
	"github.com/soyeahso/kinobot/internal/channel/telegram"
	"github.com/soyeahso/kinobot/internal/config"
	"github.com/soyeahso/kinobot/internal/dialog"
	"github.com/soyeahso/kinobot/internal/domain"
	"github.com/soyeahso/kinobot/internal/llm"
	"github.com/soyeahso/kinobot/internal/logging"
	"github.com/soyeahso/kinobot/internal/routing"
	"github.com/soyeahso/kinobot/internal/store"
	"github.com/soyeahso/kinobot/internal/version"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if logLevel == "" && cfg.Logging.Level != "" {
				log = logging.New(nil, cfg.Logging.Level, cfg.Logging.ConsoleStyle)
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			if err := paths.EnsureDirs(); err != nil {
				return err
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log.Info().Str("version", version.Info()).Msg("starting kinobot")

			dbPath := cfg.Database.Path
			if dbPath == "" {
				dbPath = filepath.Join(paths.Data, "kinobot.db")
			}
			db, err := store.Open(dbPath, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()
			users := store.NewUserStore(db)
			requests := store.NewRequestStore(db)

			model, err := llm.NewGemini(ctx, cfg.Model.APIKey, llm.WithModel(cfg.Model.Model))
			if err != nil {
				return fmt.Errorf("creating model client: %w", err)
			}
			log.Info().Str("provider", model.Name()).Str("model", cfg.Model.Model).Msg("model client ready")

			engine := dialog.NewEngine(
				dialog.Config{MaxGenres: cfg.Dialog.MaxGenres},
				model, users, requests, log,
			)

			channels := channel.NewRegistry(log)
			if cfg.Channels.Telegram != nil {
				channels.Register(telegram.New(*cfg.Channels.Telegram, log))
			}
			if cfg.Channels.IRC != nil {
				channels.Register(irc.New(*cfg.Channels.IRC, log))
			}

			router := routing.NewRouter(channels, engine, log)
			router.Bind(ctx)

			if cfg.Admin.Enabled {
				adminSrv := admin.New(cfg.Admin, channels, engine, &adminStore{users, requests}, log)
				engine.SetNotifier(adminSrv)
				go func() {
					if err := adminSrv.Start(ctx); err != nil {
						log.Error().Err(err).Msg("admin server exited with error")
					}
				}()
			}

			channels.StartAll(ctx)

			<-ctx.Done()
			log.Info().Msg("shutting down")

			shutdownCtx := context.Background()
			channels.StopAll(shutdownCtx)
			return nil
		},
	}
	return cmd
}

// adminStore bundles the two stores behind the admin counter interface.
type adminStore struct {
	users    *store.UserStore
	requests *store.RequestStore
}

func (a *adminStore) CountUsers(ctx context.Context) (int, error) {
	return a.users.CountUsers(ctx)
}

func (a *adminStore) CountRequests(ctx context.Context) (int, error) {
	return a.requests.CountRequests(ctx)
}

func (a *adminStore) RecentRequests(ctx context.Context, limit int) ([]domain.RecommendationRequest, error) {
	return a.requests.RecentRequests(ctx, limit)
}
