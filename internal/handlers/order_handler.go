package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"pozt-backend/internal/models"
	"pozt-backend/internal/services"
	"pozt-backend/pkg/utils"
)

type OrderHandler struct {
	Service *services.OrderService
	Labels  *services.LabelService
}

func NewOrderHandler(s *services.OrderService, labels *services.LabelService) *OrderHandler {
	return &OrderHandler{Service: s, Labels: labels}
}

type shipperOrdersResponse struct {
	ShipperID string          `json:"shipperId"`
	Orders    []*models.Order `json:"orders"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Service.List(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, orders)
}

// ListByShipper handles GET /api/orders/shipper/{code}
func (h *OrderHandler) ListByShipper(w http.ResponseWriter, r *http.Request) {
	shipper, orders, err := h.Service.ListByShipperCode(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, shipperOrdersResponse{ShipperID: shipper.Code, Orders: orders})
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetByTrackingID(r.Context(), mux.Vars(r)["tracking_id"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, order)
}

// Create handles POST /api/orders. The body must be a JSON array; the batch is stored atomically.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(w, r, &raw); err != nil {
		utils.Error(w, err)
		return
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) == 0 || trimmed[0] != '[' {
		utils.Error(w, services.ErrOrdersNotArray)
		return
	}

	var reqs []models.CreateOrderRequest
	if err := json.Unmarshal(raw, &reqs); err != nil {
		utils.Error(w, errInvalidBody.Wrap(err))
		return
	}

	orders, err := h.Service.Create(r.Context(), reqs)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, orders)
}

// AWB handles GET /api/orders/{tracking_id}/awb and streams the label PDF.
func (h *OrderHandler) AWB(w http.ResponseWriter, r *http.Request) {
	pdf, order, err := h.Labels.AWB(r.Context(), mux.Vars(r)["tracking_id"])
	if err != nil {
		utils.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=AWB_%s.pdf", order.TrackingID))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
