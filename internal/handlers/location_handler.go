package handlers

import (
	"net/http"

	"pozt-backend/internal/models"
	"pozt-backend/internal/services"
	"pozt-backend/pkg/utils"
)

type LocationHandler struct {
	Service *services.LocationService
}

func NewLocationHandler(s *services.LocationService) *LocationHandler {
	return &LocationHandler{Service: s}
}

func (h *LocationHandler) ListStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Service.ListStates(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, states)
}

func (h *LocationHandler) CreateState(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	state, err := h.Service.CreateState(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, state)
}

func (h *LocationHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.Service.ListCities(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, cities)
}

func (h *LocationHandler) CreateCity(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	city, err := h.Service.CreateCity(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, city)
}
