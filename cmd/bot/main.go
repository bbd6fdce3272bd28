package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"applyflow/application"
	"applyflow/cleanup"
	"applyflow/config"
	"applyflow/conversation"
	"applyflow/db"
	"applyflow/discord"
	"applyflow/logging"
	"applyflow/metrics"
	"applyflow/review"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()

	// Conversation state lives in Redis when configured so in-flight
	// applications survive a restart, and in memory otherwise.
	var states conversation.StateStore
	if cfg.Redis.Address != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer client.Close()
		states = conversation.NewRedisStore(client)
	} else {
		logger.Warn("redis address not set, conversation state is in-memory only")
		states = conversation.NewMemoryStore()
	}

	sess, err := discord.NewSession(cfg.Bot.Token)
	if err != nil {
		logger.Fatal("create session", zap.Error(err))
	}

	repo := application.NewRepository(pool)
	messenger := discord.NewMessenger(sess, logger)
	board := discord.NewBoard(sess, cfg.Bot.StaffChannelID, logger)
	gate := discord.NewGate(sess, cfg.Bot.GuildID, cfg.Bot.ReviewerRoleID)
	sweeper := cleanup.NewSweeper(messenger, logger)

	engine := conversation.NewEngine(states, repo, messenger, board, sweeper,
		cfg.Questions.List(), cfg.Bot.Cooldown(), logger)
	reviews := review.NewService(pool, repo, gate, states, messenger, board, sweeper, logger)

	if cfg.Metrics.Address != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Address); err != nil {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
	}

	bot := discord.NewBot(sess, engine, reviews, cfg.Bot.GuildID, logger)
	if err := bot.Run(ctx); err != nil {
		logger.Fatal("run bot", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
