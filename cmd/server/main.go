// cmd/server/main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unclebandit/church-broadcast/internal/config"
	"github.com/unclebandit/church-broadcast/internal/controller"
	"github.com/unclebandit/church-broadcast/internal/db"
	"github.com/unclebandit/church-broadcast/internal/gateway"
	"github.com/unclebandit/church-broadcast/internal/handler"
	"github.com/unclebandit/church-broadcast/internal/logging"
	"github.com/unclebandit/church-broadcast/internal/queue"
	"github.com/unclebandit/church-broadcast/internal/repository"
	"github.com/unclebandit/church-broadcast/internal/router"
	"github.com/unclebandit/church-broadcast/internal/service"
)

// stores groups every repository the services need.
type stores struct {
	registries    []repository.PersonRegistry
	members       repository.MemberLookup
	rosters       repository.RosterRepositoryInterface
	deliveries    repository.DeliveryRepositoryInterface
	conversations repository.ConversationRepositoryInterface
}

func postgresStores(conn *sql.DB) stores {
	members := repository.NewRegistryRepository(conn, repository.MembersTable)
	return stores{
		registries: []repository.PersonRegistry{
			members,
			repository.NewRegistryRepository(conn, repository.LeadersTable),
			repository.NewRegistryRepository(conn, repository.VolunteersTable),
			repository.NewRegistryRepository(conn, repository.VisitorsTable),
			repository.NewRegistryRepository(conn, repository.NewConvertsTable),
		},
		members:       members,
		rosters:       &repository.RosterRepository{DB: conn},
		deliveries:    &repository.DeliveryRepository{DB: conn},
		conversations: &repository.ConversationRepository{DB: conn},
	}
}

func memoryStores() stores {
	m := repository.NewMemoryStore()
	members := m.Registry(repository.MembersTable.Name)
	return stores{
		registries: []repository.PersonRegistry{
			members,
			m.Registry(repository.LeadersTable.Name),
			m.Registry(repository.VolunteersTable.Name),
			m.Registry(repository.VisitorsTable.Name),
			m.Registry(repository.NewConvertsTable.Name),
		},
		members:       members,
		rosters:       m,
		deliveries:    m,
		conversations: m,
	}
}

func newGateway(cfg config.AppConfig, log *slog.Logger) (gateway.Gateway, func(), error) {
	switch cfg.GatewayKind {
	case "amqp":
		g, err := gateway.DialAMQP(cfg.AMQPURL, cfg.AMQPQueue, log)
		if err != nil {
			return nil, nil, err
		}
		return g, func() { _ = g.Close() }, nil
	case "http":
		return gateway.NewHTTPGateway(cfg.SMSURL, cfg.SMSKey, cfg.SMSSender, log), func() {}, nil
	default:
		return &gateway.LogGateway{Log: log}, func() {}, nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st stores
	if cfg.Store == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		st = memoryStores()
	} else {
		conn, err := db.Open(ctx, cfg.DSN())
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		st = postgresStores(conn)
	}

	gw, closeGateway, err := newGateway(cfg, log)
	if err != nil {
		log.Error("gateway unavailable", "kind", cfg.GatewayKind, "error", err)
		os.Exit(1)
	}
	defer closeGateway()

	tracker := service.NewDispatchTracker(256, log)
	pool := queue.NewPool(cfg.DispatchWorkers, cfg.DispatchQueueSize, cfg.DeliveryTimeout, tracker.Record, log)

	resolver := &service.ContactResolver{
		Registries: st.registries,
		Members:    st.members,
		Rosters:    st.rosters,
		Log:        log,
	}
	dispatcher := &service.CampaignDispatcher{
		Resolver:     resolver,
		DeliveryRepo: st.deliveries,
		Gateway:      gw,
		Pool:         pool,
		Tracker:      tracker,
		Log:          log,
	}
	aggregator := &service.ConversationAggregator{
		Conversations: st.conversations,
		Deliveries:    st.deliveries,
		ReadState:     &service.ReadStateTracker{Conversations: st.conversations, Log: log},
		Log:           log,
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: router.New(router.Handlers{
			Broadcasts:    &controller.BroadcastController{Dispatcher: dispatcher, Resolver: resolver},
			Conversations: &controller.ConversationController{Aggregator: aggregator},
			Campaigns:     handler.NewCampaignHandler(dispatcher, log),
		}, cfg.AllowedOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server running", "addr", cfg.HTTPAddr, "store", cfg.Store, "gateway", cfg.GatewayKind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", "error", err)
	}
	if err := pool.Close(shutdownCtx); err != nil {
		log.Warn("dispatch pool did not drain", "error", err)
	}
}
