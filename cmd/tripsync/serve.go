package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"trip-sync/internal/api"
	"trip-sync/internal/config"
	"trip-sync/internal/handler"
	"trip-sync/internal/repository"
	"trip-sync/internal/state"
	"trip-sync/internal/storage"
	"trip-sync/internal/whatsapp"
)

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, interactive bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("🧳 Trip Sync")
	fmt.Println("============")

	cache := storage.NewStorage(cfg.DataDir, cfg.CacheKey)
	cached, err := cache.Load()
	if err != nil {
		log.Warn().Err(err).Str("path", cache.Path()).Msg("Ignoring unreadable local cache")
		cached = nil
	}

	trips, err := repository.OpenTripRepository(cfg.DatabasePath(), log)
	if err != nil {
		return err
	}
	defer trips.Close()

	remote := &repository.Remote{Trips: trips}
	if cfg.NATS.URL != "" {
		feed, err := repository.ConnectFeed(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			return err
		}
		defer feed.Close()
		remote.Feed = feed
		log.Info().Str("url", cfg.NATS.URL).Msg("Change feed connected")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var (
		wa       *whatsapp.Service
		notifier state.Notifier
	)
	if cfg.WhatsApp.Enabled {
		wa, err = whatsapp.NewService(&whatsapp.Config{
			DataDir: cfg.WhatsApp.DataDir,
			Chat:    cfg.WhatsApp.Chat,
			Logger:  log,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize WhatsApp service: %w", err)
		}
		notifier = wa
	}

	dispatcher := state.NewDispatcher(state.NewStore(nil), remote, &state.Config{
		Logger:        log,
		Notifier:      notifier,
		Metrics:       state.NewMetrics(reg),
		StrictReorder: cfg.Sync.StrictReorder,
		RevisionGuard: cfg.Sync.RevisionGuard,
	})
	dispatcher.Restore(cached)

	store := dispatcher.Store()
	cacheWriter := storage.NewWriter(cache, store.Snapshot, log)
	store.OnChange(func(_, _ *state.State) { cacheWriter.Notify() })

	if _, err := dispatcher.LoadAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Working from the local cache")
	}
	dispatcher.WatchActive(ctx)

	if wa != nil {
		fmt.Println("Connecting to WhatsApp...")
		if err := wa.Connect(); err != nil {
			return err
		}
		defer wa.Disconnect()
		fmt.Println("✅ Connected to WhatsApp!")

		if chat, err := wa.ChatJID(ctx); err != nil {
			log.Error().Err(err).Str("chat", cfg.WhatsApp.Chat).Msg("Chat commands disabled")
		} else {
			commands := handler.NewCommandHandler(wa, dispatcher, &handler.Config{Chat: chat})
			wa.SetMessageHandler(commands.HandleMessage)
		}
	}

	router := api.NewRouter(api.NewHandler(dispatcher), promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), log)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	if interactive {
		go func() {
			startCLI(bufio.NewScanner(os.Stdin), os.Stdout, dispatcher)
			stop()
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	}

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown")
	}

	dispatcher.Wait()
	if saveErr := cacheWriter.Close(); saveErr != nil {
		log.Error().Err(saveErr).Msg("Failed to write local cache")
	}
	fmt.Println("Goodbye! 👋")
	return runErr
}
