package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/assets"
)

type AssetHandler struct {
	assets *assets.Service
}

func NewAssetHandler(svc *assets.Service) *AssetHandler {
	return &AssetHandler{assets: svc}
}

type createdResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func (h *AssetHandler) Create(w http.ResponseWriter, r *http.Request) {
	var f assets.Fields
	if err := decodeBody(r, "asset", &f); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.assets.Create(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, createdResponse{Message: "Asset added successfully", ID: id}, http.StatusCreated)
}

func (h *AssetHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.assets.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, out, http.StatusOK)
}

func (h *AssetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := h.assets.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, a, http.StatusOK)
}

func (h *AssetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.assets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, messageResponse{Message: "Asset deleted"}, http.StatusOK)
}

// pathID parses a positive integer path variable.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("api.path", name+" must be a positive integer")
	}
	return id, nil
}
