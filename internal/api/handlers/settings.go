package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/conectados420/storefront/internal/audit"
	"github.com/conectados420/storefront/internal/domain/settings"
)

type SettingsService interface {
	All(ctx context.Context) (map[string]string, error)
	Update(ctx context.Context, values map[string]any) (map[string]string, error)
}

// StrategyReloader re-reads the carrier strategy after bluexpress_enabled
// changes.
type StrategyReloader interface {
	LoadStrategyFromSettings(ctx context.Context)
}

type SettingsHandler struct {
	service     SettingsService
	reloader    StrategyReloader
	auditLogger *audit.Logger
	env         string
}

func NewSettingsHandler(service SettingsService, reloader StrategyReloader, auditLogger *audit.Logger, env string) *SettingsHandler {
	return &SettingsHandler{service: service, reloader: reloader, auditLogger: auditLogger, env: env}
}

func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	values, err := h.service.All(r.Context())
	if err != nil {
		serverError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, values, "")
}

func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var values map[string]any
	if !decodeJSON(w, r, &values, h.env) {
		return
	}

	updated, err := h.service.Update(r.Context(), values)
	if err != nil {
		if errors.Is(err, settings.ErrUnknownKey) || errors.Is(err, settings.ErrInvalidValue) {
			validationFailed(w, r, "settings", err.Error(), err, h.env)
			return
		}
		serverError(w, r, err, h.env)
		return
	}

	if _, ok := values[settings.KeyBlueExpressEnabled]; ok && h.reloader != nil {
		h.reloader.LoadStrategyFromSettings(r.Context())
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	h.auditLogger.LogFromRequest(r, "settings.updated", "settings", strings.Join(keys, ","), "success", nil)
	writeJSON(w, http.StatusOK, updated, "")
}
