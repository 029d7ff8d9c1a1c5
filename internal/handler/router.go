package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/polyglot-coach/backend/internal/handler/chat"
	"github.com/zhouzirui/polyglot-coach/backend/internal/handler/persona"
	"github.com/zhouzirui/polyglot-coach/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/polyglot-coach/backend/internal/middleware"
	personaModel "github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
	chatService "github.com/zhouzirui/polyglot-coach/backend/internal/service/chat"
	"github.com/zhouzirui/polyglot-coach/backend/pkg/utils"
)

// Options carries the static values the routes expose.
type Options struct {
	PersonaID      string
	Model          string
	KnownModels    []string
	AllowedOrigins []string
	// Frontend serves every non-API path; nil disables the UI.
	Frontend http.Handler
}

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, chatSvc *chatService.Service, processor *chatService.Processor, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(opts.AllowedOrigins))

	personaHandler := persona.New(personas, opts.PersonaID, opts.Model, opts.KnownModels)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(processor, chatSvc)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":   "ok",
			"sessions": chatSvc.Count(),
		})
	})

	r.Route("/api", func(api chi.Router) {
		personaHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
	})

	if opts.Frontend != nil {
		r.Handle("/*", opts.Frontend)
	}

	return r
}
