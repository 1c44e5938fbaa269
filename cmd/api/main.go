package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/db/filestore"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/notify/twilio"
	transport "github.com/Miraines/MoonyAndStarry/records-api/internal/adapters/transport/http"
	appsvc "github.com/Miraines/MoonyAndStarry/records-api/internal/app/auth/service"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/records-api/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/records-api/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must(lg.Options{Level: os.Getenv("LOG_LEVEL")}).Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(lg.Options{Level: cfg.LogLevel, Env: cfg.EnvName})
	defer zapLog.Sync()
	if cfg.EnvName == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := filestore.New(cfg.DataDir, model.UsersCollection, model.TokensCollection)
	if err != nil {
		zapLog.Fatal("failed to open data dir", zap.String("dir", cfg.DataDir), zap.Error(err))
	}

	opts := appsvc.Options{HashingSecret: cfg.HashingSecret, TokenTTL: cfg.TokenTTL}
	if cfg.Twilio.Enabled() {
		opts.SMS = twilio.New(twilio.Options{
			AccountSID:  cfg.Twilio.AccountSID,
			AuthToken:   cfg.Twilio.AuthToken,
			FromPhone:   cfg.Twilio.FromPhone,
			CountryCode: cfg.Twilio.CountryCode,
		}, zapLog)
		zapLog.Info("welcome sms enabled")
	}

	svc := appsvc.New(
		filestore.NewUserRepo(store),
		filestore.NewTokenRepo(store),
		opts,
		validator.New(),
		zapLog,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := transport.NewEngine(cfg, svc, reg, zapLog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, engine, zapLog); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
		return
	}
	zapLog.Info("bye")
}
