package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Cervini/reinventory-backend/api/controllers"
	"github.com/Cervini/reinventory-backend/api/middleware"
	"github.com/Cervini/reinventory-backend/internal/campaign"
	"github.com/Cervini/reinventory-backend/internal/inventory"
	"github.com/Cervini/reinventory-backend/internal/presence"
	syncpkg "github.com/Cervini/reinventory-backend/internal/sync"
	"github.com/Cervini/reinventory-backend/internal/trade"
	"github.com/Cervini/reinventory-backend/pkg/changebus"
	"github.com/Cervini/reinventory-backend/pkg/config"
	"github.com/Cervini/reinventory-backend/pkg/db"
	"github.com/Cervini/reinventory-backend/pkg/logger"
	"github.com/Cervini/reinventory-backend/pkg/metrics"
	"github.com/Cervini/reinventory-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       redis.Pinger
	Registry    *prometheus.Registry
	Campaigns   campaign.Service
	Inventories inventory.Service
	Trades      trade.Service
	Presence    *presence.Tracker
	Loader      syncpkg.Loader
	Bus         changebus.Bus
	SyncMetrics *metrics.SyncMetrics
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/campaigns", func(r chi.Router) {
			r.Get("/", controllers.CampaignList(p.Campaigns, logg))
			r.Post("/", controllers.CampaignCreate(p.Campaigns, logg))

			r.Route("/{campaignId}", func(r chi.Router) {
				r.Get("/", controllers.CampaignDetail(p.Campaigns, logg))
				r.Delete("/", controllers.CampaignDelete(p.Campaigns, logg))
				r.Put("/settings", controllers.CampaignUpdateSettings(p.Campaigns, logg))
				r.Put("/layout", controllers.CampaignUpdateLayout(p.Campaigns, logg))
				r.Post("/join", controllers.CampaignJoin(p.Campaigns, logg))
				r.Post("/leave", controllers.CampaignLeave(p.Campaigns, logg))
				r.Delete("/players/{playerId}", controllers.CampaignRemovePlayer(p.Campaigns, logg))

				r.Get("/ws", controllers.SyncStream(controllers.SyncStreamParams{
					Campaigns: p.Campaigns,
					Loader:    p.Loader,
					Bus:       p.Bus,
					Presence:  p.Presence,
					Metrics:   p.SyncMetrics,
					Sync:      cfg.Sync,
					PongWait:  cfg.Presence.TTL,
					Origins:   cfg.CORS.AllowedOrigins,
					Logger:    logg,
				}))

				r.Route("/presence", func(r chi.Router) {
					r.Post("/heartbeat", controllers.PresenceHeartbeat(p.Presence, logg))
					r.Delete("/", controllers.PresenceDisconnect(p.Presence, logg))
				})

				r.Route("/inventories/{ownerId}", func(r chi.Router) {
					r.Get("/", controllers.InventoryView(p.Inventories, logg))
					r.Put("/settings", controllers.InventoryUpdateSettings(p.Inventories, logg))

					r.Route("/containers", func(r chi.Router) {
						r.Post("/", controllers.ContainerCreate(p.Inventories, logg))
					})

					r.Route("/items", func(r chi.Router) {
						r.Post("/", controllers.ItemCreate(p.Inventories, logg))
						r.Post("/move", controllers.ItemMove(p.Inventories, logg))
						r.Route("/{itemId}", func(r chi.Router) {
							r.Put("/", controllers.ItemEdit(p.Inventories, logg))
							r.Delete("/", controllers.ItemDelete(p.Inventories, logg))
							r.Post("/rotate", controllers.ItemRotate(p.Inventories, logg))
							r.Post("/split", controllers.ItemSplit(p.Inventories, logg))
							r.Post("/duplicate", controllers.ItemDuplicate(p.Inventories, logg))
							r.Post("/send", controllers.ItemSend(p.Inventories, logg))
						})
					})
				})

				// Container rename/resize/delete key on the container id
				// alone; ownership is resolved server side.
				r.Route("/containers/{containerId}", func(r chi.Router) {
					r.Patch("/", controllers.ContainerUpdate(p.Inventories, logg))
					r.Delete("/", controllers.ContainerDelete(p.Inventories, logg))
				})

				r.Route("/trades", func(r chi.Router) {
					r.Get("/", controllers.TradeList(p.Trades, logg))
					r.Post("/", controllers.TradeCreate(p.Trades, logg))
					r.Route("/{tradeId}", func(r chi.Router) {
						r.Get("/", controllers.TradeDetail(p.Trades, logg))
						r.Post("/accept-invitation", controllers.TradeAcceptInvitation(p.Trades, logg))
						r.Post("/decline", controllers.TradeDecline(p.Trades, logg))
						r.Post("/cancel", controllers.TradeCancel(p.Trades, logg))
						r.Put("/offer", controllers.TradeModifyOffer(p.Trades, logg))
						r.Post("/accept", controllers.TradeAccept(p.Trades, logg))
					})
				})
			})
		})
	})

	return r
}
