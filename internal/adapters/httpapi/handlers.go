package httpapi

import (
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentrychat/message-security/internal/adapters/ws"
	"github.com/sentrychat/message-security/internal/application"
	"github.com/sentrychat/message-security/internal/domain"
	"github.com/sentrychat/message-security/internal/ledger"
	"github.com/sentrychat/message-security/internal/reputation"
)

// Handlers wires the REST and websocket surface to the pipeline
type Handlers struct {
	pipeline *application.Pipeline
	ledger   *ledger.Ledger
	cache    *reputation.Cache
	checker  *reputation.Checker
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewHandlers(
	pipeline *application.Pipeline,
	auditLog *ledger.Ledger,
	cache *reputation.Cache,
	checker *reputation.Checker,
	hub *ws.Hub,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		ledger:   auditLog,
		cache:    cache,
		checker:  checker,
		hub:      hub,
		logger:   logger,
	}
}

// Register mounts all routes on the app
func (h *Handlers) Register(app *fiber.App) {
	app.Get("/healthz", h.healthz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Get("/ledger", h.queryLedger)
	api.Post("/ledger/:id/false-positive", h.reportFalsePositive)
	api.Delete("/ledger", h.clearLedger)
	api.Get("/stats", h.stats)
	api.Get("/config", h.getConfig)
	api.Put("/config", h.updateConfig)
	api.Post("/scan/preview", h.preview)
	api.Get("/rooms/:room/messages", h.roomMessages)
	api.Post("/rooms/:room/close", h.closeRoom)
	api.Post("/messages/:id/retry", h.retryMessage)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws/:room", websocket.New(h.serveWS))
}

func (h *Handlers) healthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// serveWS GET /api/ws/:room?client_id=
func (h *Handlers) serveWS(conn *websocket.Conn) {
	room := conn.Params("room")
	clientID := conn.Query("client_id")
	if clientID == "" {
		clientID = uuid.NewString()
	}

	client := h.hub.NewClient(clientID, room, conn)
	h.hub.Register(client)
	go client.WritePump()
	client.ReadPump()
}

// queryLedger GET /api/ledger?from=&to=&min_level=&type=&search=&order=
func (h *Handlers) queryLedger(c *fiber.Ctx) error {
	var filter ledger.Filter

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid from timestamp"})
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid to timestamp"})
		}
		filter.To = to
	}
	filter.MinLevel = domain.ThreatLevel(c.Query("min_level"))
	filter.Type = domain.ThreatType(c.Query("type"))
	filter.Search = c.Query("search")
	filter.Ascending = c.Query("order") == "asc"

	return c.JSON(h.ledger.Query(filter))
}

// reportFalsePositive POST /api/ledger/:id/false-positive
func (h *Handlers) reportFalsePositive(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid entry id"})
	}
	if !h.ledger.ReportFalsePositive(id) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "entry not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// clearLedger DELETE /api/ledger
func (h *Handlers) clearLedger(c *fiber.Ctx) error {
	h.ledger.Clear()
	h.logger.Info("ledger cleared via api")
	return c.SendStatus(fiber.StatusNoContent)
}

type statsResponse struct {
	application.Stats
	ReputationCacheHits   int64 `json:"reputation_cache_hits"`
	ReputationCacheMisses int64 `json:"reputation_cache_misses"`
	ReputationCacheSize   int   `json:"reputation_cache_size"`
	ReputationAPIErrors   int64 `json:"reputation_api_errors"`
}

// stats GET /api/stats
func (h *Handlers) stats(c *fiber.Ctx) error {
	hits, misses := h.cache.Stats()
	return c.JSON(statsResponse{
		Stats:                 h.pipeline.Stats(),
		ReputationCacheHits:   hits,
		ReputationCacheMisses: misses,
		ReputationCacheSize:   h.cache.Len(),
		ReputationAPIErrors:   h.checker.APIErrors(),
	})
}

// getConfig GET /api/config
func (h *Handlers) getConfig(c *fiber.Ctx) error {
	return c.JSON(h.pipeline.Config())
}

// updateConfig PUT /api/config
// The body is a complete SecurityConfig, replaced as a whole.
func (h *Handlers) updateConfig(c *fiber.Ctx) error {
	var cfg domain.SecurityConfig
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid config body"})
	}
	h.pipeline.UpdateConfig(cfg)
	return c.JSON(h.pipeline.Config())
}

type previewRequest struct {
	Content string `json:"content"`
}

// preview POST /api/scan/preview
// Advisory only. The pipeline rescans on submit regardless of this result.
func (h *Handlers) preview(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid preview body"})
	}
	return c.JSON(h.pipeline.Preview(req.Content))
}

// roomMessages GET /api/rooms/:room/messages
func (h *Handlers) roomMessages(c *fiber.Ctx) error {
	msgs := h.pipeline.RoomMessages(c.Params("room"))
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return c.JSON(msgs)
}

// closeRoom POST /api/rooms/:room/close
func (h *Handlers) closeRoom(c *fiber.Ctx) error {
	h.pipeline.CloseRoom(c.Params("room"))
	return c.SendStatus(fiber.StatusNoContent)
}

type retryRequest struct {
	Content string `json:"content"`
}

// retryMessage POST /api/messages/:id/retry
// A retry is a brand new submission: the edited content gets a fresh id and
// a full rescan, never a reuse of the blocked verdict.
func (h *Handlers) retryMessage(c *fiber.Ctx) error {
	var req retryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid retry body"})
	}
	newID, err := h.pipeline.Retry(c.Params("id"), req.Content)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": newID})
}
