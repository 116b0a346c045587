package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club-trivia-service/internal/app"
	"club-trivia-service/internal/config"
	"club-trivia-service/internal/domain"
	"club-trivia-service/internal/infra/memory"
	pgloader "club-trivia-service/internal/infra/postgres"
	redisinfra "club-trivia-service/internal/infra/redis"
	transport "club-trivia-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Quiz.QuestionTTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var peers app.PeerSource
	var scores app.ScoreSink
	if redisClient != nil {
		leaderboard := redisinfra.NewLeaderboard(redisClient)
		peers = leaderboard
		scores = leaderboard
	} else {
		peers = memory.NewPeerSource(samplePeers())
	}

	var registry app.SessionRegistry
	if redisClient != nil {
		registry = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		registry = memory.NewSessionStore()
	}

	service := app.NewGameService(questions, peers, scores, registry)
	countdown := cfg.Quiz.CountdownSeconds
	if countdown <= 0 {
		countdown = app.DefaultCountdownSeconds
	}
	service.SetTiming(countdown, config.TTLDuration(cfg.Quiz.FeedbackDelay, app.DefaultFeedbackDelay))

	setID := cfg.Quiz.Set
	if setID == "" {
		setID = "club-trivia"
	}
	wsHandler := transport.NewWSHandler(service, cfg.Club, setID)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting trivia service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides the demo club quiz; swap the loader for the
// Postgres-backed one in production.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"club-trivia": {
			ID:     "club-trivia",
			ClubID: "demo-club",
			Questions: []domain.Question{
				{
					ID:               1,
					Prompt:           "In what year was the club founded?",
					Options:          []string{"1890", "1900", "1910", "1920"},
					CorrectOption:    0,
					TimeLimitSeconds: 30,
				},
				{
					ID:               2,
					Prompt:           "Who is the all-time top scorer?",
					Options:          []string{"John Smith", "Mike Johnson", "David Wilson", "Chris Brown"},
					CorrectOption:    1,
					TimeLimitSeconds: 30,
				},
				{
					ID:               3,
					Prompt:           "How many goals were conceded this season?",
					Options:          []string{"15", "20", "25", "30"},
					CorrectOption:    2,
					TimeLimitSeconds: 30,
				},
				{
					ID:               4,
					Prompt:           "What is the club's home stadium called?",
					Options:          []string{"City Stadium", "Home Ground", "Main Arena", "Central Park"},
					CorrectOption:    0,
					TimeLimitSeconds: 30,
				},
				{
					ID:               5,
					Prompt:           "Which player has the most appearances?",
					Options:          []string{"Player A", "Player B", "Player C", "Player D"},
					CorrectOption:    2,
					TimeLimitSeconds: 30,
				},
			},
		},
	}
}

// samplePeers is the demo scoreboard used when no redis leaderboard is
// configured.
func samplePeers() []domain.PlayerScore {
	return []domain.PlayerScore{
		{Nickname: "QuizMaster", Email: "quiz@example.com", Score: 85},
		{Nickname: "FootballFan", Email: "fan@example.com", Score: 78},
		{Nickname: "GoalGetter", Email: "goal@example.com", Score: 65},
		{Nickname: "StadiumStar", Email: "star@example.com", Score: 58},
		{Nickname: "MatchMaster", Email: "match@example.com", Score: 52},
		{Nickname: "TeamPlayer", Email: "team@example.com", Score: 45},
		{Nickname: "Champion", Email: "champ@example.com", Score: 38},
	}
}
