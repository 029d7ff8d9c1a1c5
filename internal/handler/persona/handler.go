package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/polyglot-coach/backend/internal/model/persona"
	"github.com/zhouzirui/polyglot-coach/backend/pkg/utils"
)

// Handler persona服务的HTTP处理器
type Handler struct {
	personas  persona.Store
	activeID  string
	model     string
	available []string
}

// New 创建persona处理器。activeID 为当前会话使用的角色，model/available 用于展示模型信息。
func New(personas persona.Store, activeID, model string, available []string) *Handler {
	return &Handler{
		personas:  personas,
		activeID:  activeID,
		model:     model,
		available: append([]string(nil), available...),
	}
}

// RegisterRoutes 注册persona相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persona", h.handleActivePersona)
	r.Get("/personas", h.handleListPersonas)
	r.Get("/models", h.handleModels)
}

func (h *Handler) handleActivePersona(w http.ResponseWriter, r *http.Request) {
	p, err := h.personas.Get(h.activeID)
	if err != nil {
		utils.RespondServiceError(w, err, utils.ErrorStatus{Target: persona.ErrNotFound, Status: http.StatusNotFound})
		return
	}
	utils.RespondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleListPersonas(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.List())
}

func (h *Handler) handleModels(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"model":     h.model,
		"available": h.available,
	})
}
