package handlers

import (
	"net/http"

	"github.com/conectados420/storefront/internal/domain/regions"
)

type RegionsHandler struct {
	Env string
}

func (h *RegionsHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, map[string]any{"items": regions.Regions()}, "")
}

func (h *RegionsHandler) Comunas(w http.ResponseWriter, r *http.Request) {
	region := pathParam(r, "region")
	comunas := regions.Comunas(region)
	if comunas == nil {
		notFound(w, r, "Region not found", nil, h.Env)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, map[string]any{"region": region, "items": comunas}, "")
}
