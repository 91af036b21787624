package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"pozt-backend/internal/models"
	"pozt-backend/internal/services"
	"pozt-backend/pkg/utils"
)

type ShipperHandler struct {
	Service *services.ShipperService
}

func NewShipperHandler(s *services.ShipperService) *ShipperHandler {
	return &ShipperHandler{Service: s}
}

func (h *ShipperHandler) List(w http.ResponseWriter, r *http.Request) {
	shippers, err := h.Service.List(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, shippers)
}

func (h *ShipperHandler) Get(w http.ResponseWriter, r *http.Request) {
	shipper, err := h.Service.GetByCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, shipper)
}

func (h *ShipperHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateShipperRequest
	if err := decodeJSON(w, r, &req); err != nil {
		utils.Error(w, err)
		return
	}

	shipper, err := h.Service.Create(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, shipper)
}
