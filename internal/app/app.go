package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"example.com/gtp-mvp/internal/ai"
	"example.com/gtp-mvp/internal/auth"
	"example.com/gtp-mvp/internal/config"
	"example.com/gtp-mvp/internal/game"
	"example.com/gtp-mvp/internal/httpapi"
	"example.com/gtp-mvp/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	srv *http.Server
}

type Options struct {
	Static http.Handler // optional; if nil, no frontend is served
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	// --- Postgres ---
	dbpool, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})

	// Quick connectivity checks (fail fast).
	pingCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
	defer cancel()
	if err := dbpool.Ping(pingCtx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	pingErr := rdb.Ping(pingCtx).Err()
	if pingErr != nil {
		dbpool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, pingErr)
	}

	// --- Auth service ---
	authSvc := auth.NewService([]byte(cfg.Auth.Secret), cfg.Auth.TokenTTL)

	// --- Stores ---
	users := store.NewUserStore(dbpool)
	stats := store.NewStatsStore(dbpool)
	board := store.NewLeaderboardStore(dbpool)

	authH := &httpapi.AuthHandler{
		Users: users,
		Stats: stats,
		Auth:  authSvc,
	}
	boardH := &httpapi.LeaderboardHandler{Board: board}

	// --- AI providers ---
	textGen, embedder := buildAI(cfg, log)

	// --- Game ---
	gameCfg := gameConfig(cfg)

	var rounds game.RoundStore
	if cfg.Redis.RoundTTL > 0 {
		rounds = game.NewRedisRoundStore(rdb, cfg.Redis.RoundTTL)
	} else {
		rounds = game.NewMemoryRoundStore(gameCfg.RoundCap)
	}

	scorers := map[string]game.Scorer{
		gameCfg.Solo.Name:        game.BuildScorer(gameCfg.Solo, textGen, embedder),
		gameCfg.TimedSolo.Name:   game.BuildScorer(gameCfg.TimedSolo, textGen, embedder),
		gameCfg.Multiplayer.Name: game.BuildScorer(gameCfg.Multiplayer, textGen, embedder),
	}

	persist := game.NewRedisGameStore(rdb, cfg.Redis.GameTTL)
	results := &resultSink{board: board, stats: stats}
	gen := game.NewGenerator(textGen, rounds)
	gameSvc := game.NewService(gameCfg, gen, scorers, rounds, persist, results, log)
	gameSrv := game.NewServer(gameCfg, gameSvc, authSvc)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	gameSrv.RegisterRoutes(mux)

	// --- auth routes ---
	mux.HandleFunc("/api/auth/register", authH.Register)
	mux.HandleFunc("/api/auth/login", authH.Login)
	mux.Handle("/api/me", httpapi.AuthMiddleware(authSvc)(http.HandlerFunc(authH.Me)))

	// --- leaderboard ---
	mux.HandleFunc("GET /api/leaderboard", boardH.List)
	mux.HandleFunc("POST /api/leaderboard", boardH.Submit)

	if opts.Static != nil {
		mux.Handle("/", opts.Static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, db: dbpool, rdb: rdb, srv: srv}, nil
}

// buildAI wires the generation chain: OpenAI primary, Anthropic fallback,
// with a bounded retry around whichever survives. Embeddings are OpenAI-only;
// without a key the embedding scorer degrades to its judged fallback.
func buildAI(cfg config.Config, log *slog.Logger) (ai.TextGenerator, ai.Embedder) {
	httpClient := &http.Client{Timeout: cfg.AI.Timeout}

	openai := &ai.OpenAIClient{
		BaseURL:    cfg.AI.OpenAIBase,
		APIKey:     cfg.AI.OpenAIKey,
		Model:      cfg.AI.OpenAIModel,
		EmbedModel: cfg.AI.EmbedModel,
		HTTP:       httpClient,
	}
	anthropic := &ai.AnthropicClient{
		BaseURL: cfg.AI.AnthropicBase,
		APIKey:  cfg.AI.AnthropicKey,
		Model:   cfg.AI.AnthropicModel,
		HTTP:    httpClient,
	}

	var gen ai.TextGenerator
	switch {
	case cfg.AI.OpenAIKey != "" && cfg.AI.AnthropicKey != "":
		gen = &ai.Fallback{Primary: openai, Secondary: anthropic, Log: log}
	case cfg.AI.AnthropicKey != "":
		gen = anthropic
	default:
		gen = openai
	}

	gen = &ai.Retrying{
		Inner:    gen,
		Attempts: uint64(cfg.AI.RetryAttempts),
		Delay:    cfg.AI.RetryDelay,
	}

	var emb ai.Embedder = ai.NoopEmbedder{}
	if cfg.AI.OpenAIKey != "" {
		emb = openai
	}
	return gen, emb
}

func gameConfig(cfg config.Config) game.Config {
	gc := game.DefaultConfig()
	gc.RoundCap = cfg.Game.RoundCap
	gc.Solo.Threshold = cfg.Game.SoloThreshold
	gc.Solo.TotalRounds = cfg.Game.TotalRounds
	gc.TimedSolo.Threshold = cfg.Game.VersusThreshold
	gc.TimedSolo.TotalRounds = cfg.Game.TotalRounds
	gc.TimedSolo.TimeLimit = cfg.Game.SoloTimeLimit
	gc.Multiplayer.Threshold = cfg.Game.VersusThreshold
	gc.Multiplayer.TotalRounds = cfg.Game.TotalRounds
	return gc
}

// resultSink adapts the Postgres stores to the game-over hook.
type resultSink struct {
	board *store.LeaderboardStore
	stats *store.StatsStore
}

func (s *resultSink) SaveResult(ctx context.Context, e game.LeaderboardEntry) error {
	return s.board.Insert(ctx, store.LeaderboardRow{
		Username:        e.Username,
		Country:         e.Country,
		Score:           e.Score,
		RoundsCompleted: e.RoundsCompleted,
		TotalGuesses:    e.TotalGuesses,
		TimeSeconds:     e.TimeSeconds,
	})
}

func (s *resultSink) RecordOutcome(ctx context.Context, userID, outcome string) error {
	return s.stats.RecordOutcome(ctx, userID, outcome)
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
