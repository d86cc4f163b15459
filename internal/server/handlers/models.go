package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/modelcast/internal/server/response"
)

// RevisionHeader carries the catalog revision of a pulled snapshot.
const RevisionHeader = "X-Catalog-Revision"

// HandleModels handles GET /model and GET /models.
// @Summary Get model catalog
// @Description Returns the current catalog as the JSON array from the catalog file
// @Tags models
// @Produce json
// @Success 200 {array} object
// @Router /model [get].
func (h *Handlers) HandleModels(w http.ResponseWriter, _ *http.Request) {
	snap := h.service.Current()

	w.Header().Set(RevisionHeader, strconv.FormatUint(snap.Revision, 10))
	w.Header().Set("Cache-Control", "no-cache")
	response.Raw(w, http.StatusOK, snap.JSON())
}
