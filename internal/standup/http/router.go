package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/standup/internal/standup/dedup"
	"github.com/aussiebroadwan/standup/internal/standup/service"
	"github.com/aussiebroadwan/standup/internal/standup/store"
	"github.com/aussiebroadwan/standup/pkg/httpx"
	"github.com/aussiebroadwan/standup/pkg/signx"
	"github.com/aussiebroadwan/standup/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *signx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	dedup *dedup.Store

	IngestService *service.IngestService
	TokenService  *service.TokenService
	AnswerService *service.AnswerService
}

func NewRouter(
	verifier *signx.Verifier,
	buildVersion string,
	st store.Store,
	dd *dedup.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		dedup:        dd,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerWebhooks()
	r.registerSubmissions()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerWebhooks() {
	h := &WebhookHandler{
		Verifier: r.verifier,
		Ingest:   r.IngestService,
	}

	// Webhook ingestion - moderate limit (the sender batches retries)
	r.Mux.Handle("POST /v1/slack/events",
		httpx.Chain(http.HandlerFunc(h.HandleEvents),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/slack/commands",
		httpx.Chain(http.HandlerFunc(h.HandleCommands),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/slack/interactions",
		httpx.Chain(http.HandlerFunc(h.HandleInteractions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSubmissions() {
	h := &SubmissionsHandler{
		TokenService:  r.TokenService,
		AnswerService: r.AnswerService,
	}

	// GET - token-gated metadata read, public limit
	r.Mux.Handle("GET /v1/submissions",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// POST - unauthenticated write endpoint, strict limit
	r.Mux.Handle("POST /v1/submissions",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.dedup),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
