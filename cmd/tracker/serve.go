package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/po-tracker/internal/bot"
	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/customers"
	"github.com/Spok95/po-tracker/internal/domain/inventory"
	"github.com/Spok95/po-tracker/internal/domain/materials"
	"github.com/Spok95/po-tracker/internal/domain/products"
	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/users"
	httpx "github.com/Spok95/po-tracker/internal/infra/http"
	"github.com/Spok95/po-tracker/internal/infra/metrics"
	"github.com/Spok95/po-tracker/internal/infra/pgstore"
	"github.com/Spok95/po-tracker/internal/poimport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	if !skipMigrate {
		if err := runMigrations(a.cfg.Postgres.DSN, "up", log); err != nil {
			log.Error("migrations failed", "err", err)
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc := reconciliation.NewService(pgstore.New(a.pool), log, m)

	var metricsHandler http.Handler
	if a.cfg.Metrics.Enabled {
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
	}
	stock := inventory.NewRepo(a.pool)
	api := httpx.NewAPI(svc, log).
		WithOrders(purchaseorders.NewRepo(a.pool)).
		WithReference(httpx.Reference{
			Customers:  customers.NewRepo(a.pool),
			Materials:  materials.NewRepo(a.pool),
			Warehouses: catalog.NewRepo(a.pool),
			Stock:      stock,
			Products:   products.NewRepo(a.pool),
		})
	srv := httpx.New(a.cfg.HTTP.Addr, metricsHandler, api)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", a.cfg.HTTP.Addr)

	if a.cfg.Telegram.Token != "" {
		tg, err := tgbotapi.NewBotAPI(a.cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return err
		}
		importer := poimport.NewImporter(
			customers.NewRepo(a.pool), materials.NewRepo(a.pool),
			products.NewRepo(a.pool), purchaseorders.NewRepo(a.pool), log,
		)
		b := bot.New(tg, log,
			users.NewRepo(a.pool), dialog.NewRepo(a.pool), catalog.NewRepo(a.pool),
			svc, importer, bot.Options{
				AdminChatID:        a.cfg.Telegram.AdminChatID,
				DefaultWarehouseID: a.cfg.Receiving.DefaultWarehouseID,
				ReplyWithin:        a.cfg.Telegram.ReplyWithin,
			})
		go func() {
			if err := b.Run(ctx, a.cfg.Telegram.Timeout); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
		log.Info("telegram bot started", "bot", tg.Self.UserName)
	} else {
		log.Warn("telegram.token is empty, bot disabled")
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
	return nil
}
