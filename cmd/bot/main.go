package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ruprime/tournament-bot/internal/config"
	"github.com/ruprime/tournament-bot/internal/infrastructure/discord"
	"github.com/ruprime/tournament-bot/internal/infrastructure/pubg"
	"github.com/ruprime/tournament-bot/internal/infrastructure/repository/sqlite"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
	"github.com/ruprime/tournament-bot/internal/platform/resilience"
	"github.com/ruprime/tournament-bot/internal/telegram"
	"github.com/ruprime/tournament-bot/internal/usecase"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.NewJSON(cfg.LogLevel)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	logger.Info("database ready", "path", cfg.DBPath)

	teams := sqlite.NewTeamRepository(db)
	tournaments := sqlite.NewTournamentRepository(db)
	admins := sqlite.NewAdminRepository(db)
	statsRepo := sqlite.NewStatsRepository(db)

	var (
		roleClient    usecase.RoleClient
		memberLookup  usecase.MemberDirectory
		discordClient *discord.Client
	)
	if cfg.DiscordEnabled {
		discordClient, err = discord.New(cfg.DiscordToken, cfg.DiscordGuildID, logger)
		if err != nil {
			return err
		}
		if err := discordClient.Open(); err != nil {
			return err
		}
		defer func() {
			_ = discordClient.Close()
		}()
		roleClient = discordClient
		memberLookup = discordClient
	} else {
		logger.Warn("discord integration disabled, role sync is a no-op")
	}

	roles, err := usecase.NewRoleSyncService(roleClient, usecase.RoleSyncConfig{
		ParticipantRoleID: cfg.DiscordParticipantRoleID,
		CaptainRoleID:     cfg.DiscordCaptainRoleID,
		GrantWorkers:      cfg.RoleGrantWorkers,
	}, logger)
	if err != nil {
		return err
	}
	defer roles.Close()

	nicknames := pubg.NewClient(pubg.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.PubgTimeout},
		BaseURL:    cfg.PubgBaseURL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.PubgCircuitEnabled,
			FailureThreshold: cfg.PubgCircuitFailureCount,
			OpenTimeout:      cfg.PubgCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.PubgCircuitHalfOpenMaxReq,
		},
	})

	registration := usecase.NewRegistrationService(teams, tournaments, roles, logger)
	review := usecase.NewReviewService(teams, admins, statsRepo, roles, logger)
	tournamentSvc := usecase.NewTournamentService(tournaments, teams, roles, logger)

	if err := review.EnsureBootstrapAdmin(ctx, cfg.AdminTelegramID, "bootstrap"); err != nil {
		return err
	}

	app, err := telegram.New(cfg.BotToken, telegram.Deps{
		Registration: registration,
		Review:       review,
		Tournaments:  tournamentSvc,
		Nicknames:    nicknames,
		Members:      memberLookup,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("create telegram app: %w", err)
	}
	if cfg.ChannelID != "" {
		app.SetSubscriptionChecker(telegram.NewChannelChecker(app.Bot(), cfg.ChannelID))
	}

	logger.Info("bot started")
	err = app.Run(ctx)
	roles.Flush()
	return err
}
