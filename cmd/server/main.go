package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"unoserver/internal/bot"
	"unoserver/internal/config"
	"unoserver/internal/room"
	"unoserver/internal/server"
	"unoserver/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := cfg.Logger()

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer store.Close()

	strategies := bot.DefaultRegistry()
	strategy, ok := strategies.Get(cfg.BotStrategy)
	if !ok {
		log.Fatalf("unknown bot strategy %q (have %s)", cfg.BotStrategy, strings.Join(strategies.Names(), ", "))
	}

	rooms := room.NewRegistry(room.RegistryOptions{
		Room: room.Options{
			BotDelay: cfg.BotDelay,
			Strategy: strategy,
		},
		RetainFinished: cfg.RetainFinished,
		IdleTimeout:    cfg.IdleTimeout,
		Recorder:       store,
		Logger:         log,
	})
	defer rooms.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go rooms.CleanupLoop(ctx, cfg.CleanupInterval)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.New(server.Options{
			Rooms:           rooms,
			Results:         store,
			Logger:          log,
			OriginAllowlist: cfg.OriginAllowlist,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.WithError(err).Warn("shutdown")
		}
	}()

	log.WithFields(logrus.Fields{"addr": srv.Addr, "db": cfg.DBPath, "strategy": strategy.Name()}).Info("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server: %v", err)
	}
	log.Info("stopped")
}
