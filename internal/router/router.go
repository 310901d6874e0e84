package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/unclebandit/church-broadcast/internal/controller"
	"github.com/unclebandit/church-broadcast/internal/handler"
)

type Handlers struct {
	Broadcasts    *controller.BroadcastController
	Conversations *controller.ConversationController
	Campaigns     *handler.CampaignHandler
}

func New(h Handlers, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/churches/{churchID}", func(cr chi.Router) {
		cr.Get("/audiences/{target}", h.Broadcasts.ResolveAudience)

		cr.Route("/broadcasts", func(b chi.Router) {
			b.Post("/", h.Broadcasts.SendBroadcast)
			b.Post("/preview", h.Broadcasts.Preview)
			b.Get("/{campaignID}", h.Campaigns.GetCampaignReport)
		})

		cr.Route("/conversations", func(c chi.Router) {
			c.Get("/", h.Conversations.ListConversations)
			c.Get("/{phone}/messages", h.Conversations.GetMessages)
			c.Post("/{phone}/read", h.Conversations.MarkRead)
		})
	})

	return r
}
