package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"impostorparty/internal/cache"
	"impostorparty/internal/config"
	"impostorparty/internal/game"
	"impostorparty/internal/repository"
	"impostorparty/internal/service"
	"impostorparty/internal/shutdown"
	"impostorparty/internal/transport/rest"
	"impostorparty/internal/transport/ws"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("IMPOSTORPARTY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "impostorparty",
		Short:         "Realtime backend for a social-deduction party game played over room codes.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: IMPOSTORPARTY_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: IMPOSTORPARTY_PORT)")
	fs.StringVar(&cfg.JoinBaseURL, "join-base-url", "http://localhost:8080", "public base URL encoded in join QR codes (env: IMPOSTORPARTY_JOIN_BASE_URL)")
	fs.StringVar(&cfg.MongoURI, "mongo-uri", "mongodb://localhost:27017", "mongodb connection URI (env: IMPOSTORPARTY_MONGO_URI)")
	fs.StringVar(&cfg.MongoDB, "mongo-db", "impostorparty", "mongodb database name (env: IMPOSTORPARTY_MONGO_DB)")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "localhost:6379", "redis address (env: IMPOSTORPARTY_REDIS_ADDR)")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "secret for signing guest identity tokens (env: IMPOSTORPARTY_JWT_SECRET)")
	fs.StringVar(&cfg.AdminKey, "admin-key", "", "key required for maintenance endpoints; empty disables them (env: IMPOSTORPARTY_ADMIN_KEY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "enable debug logging (env: IMPOSTORPARTY_VERBOSE)")
	fs.IntVar(&cfg.MinPlayers, "min-players", 3, "minimum players to start a match (env: IMPOSTORPARTY_MIN_PLAYERS)")
	fs.IntVar(&cfg.MaxPlayers, "max-players", 10, "maximum players per room (env: IMPOSTORPARTY_MAX_PLAYERS)")
	fs.IntVar(&cfg.MaxRounds, "max-rounds", 3, "elimination rounds before the impostor survives (env: IMPOSTORPARTY_MAX_ROUNDS)")
	fs.IntVar(&cfg.ScoreThreshold, "score-threshold", 15, "cumulative score that ends the game (env: IMPOSTORPARTY_SCORE_THRESHOLD)")
	fs.DurationVar(&cfg.ClueTimeout, "clue-timeout", 90*time.Second, "per-turn clue timer in chat mode (env: IMPOSTORPARTY_CLUE_TIMEOUT)")
	fs.DurationVar(&cfg.RoomGrace, "room-grace", 60*time.Second, "grace period before an empty room is destroyed (env: IMPOSTORPARTY_ROOM_GRACE)")
	fs.StringVar(&cfg.Language, "language", "en", "default word bank language (env: IMPOSTORPARTY_LANGUAGE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping mongodb: %w", err)
	}
	log.Info().Str("db", cfg.MongoDB).Msg("connected to mongodb")

	db := mongoClient.Database(cfg.MongoDB)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("connected to redis")

	hub := ws.NewHub()

	roomRepo := repository.NewRoomRepo(db)
	roomCache := cache.NewRoomCache(rdb)
	presenceCache := cache.NewPresenceCache(rdb)

	authSvc := service.NewAuthService(cfg.JWTSecret)
	roomStore := service.NewRoomStore(roomRepo, roomCache)

	gameCfg := game.DefaultConfig()
	gameCfg.MinPlayers = cfg.MinPlayers
	gameCfg.MaxPlayers = cfg.MaxPlayers
	gameCfg.MaxRounds = cfg.MaxRounds
	gameCfg.ScoreThreshold = cfg.ScoreThreshold
	gameCfg.ClueTimeout = cfg.ClueTimeout
	gameCfg.RoomGrace = cfg.RoomGrace
	gameCfg.Language = cfg.Language

	registry := game.NewRegistry(gameCfg, game.DefaultWordBank(), hub, roomStore, presenceCache)
	registry.OnMembership(hub.BindMembership)
	hub.SetDisconnectHandler(func(playerID string) {
		if room, ok := registry.ResolveActiveRoomFor(playerID); ok {
			room.MarkUnreachable(playerID)
		}
	})

	coordinator := shutdown.NewCoordinator(registry, hub)

	router := rest.NewRouter(&rest.Container{
		AuthService: authSvc,
		Registry:    registry,
		Coordinator: coordinator,
		WSHub:       hub,
		JoinBaseURL: cfg.JoinBaseURL,
		AdminKey:    cfg.AdminKey,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}

func main() {
	cfg := &config.Config{}
	if err := newCmd(cfg).Execute(); err != nil {
		log.Fatal().Err(err).Msg("exiting")
	}
}
