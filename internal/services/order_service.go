package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/idgen"
	"pozt-backend/internal/metrics"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
	"pozt-backend/internal/timeutil"
)

type OrderService struct {
	Store     OrderStore
	Shippers  ShipperStore
	Locations LocationStore
	IDs       IDGenerator
	Publisher OrderPublisher

	now    timeutil.Clock
	logger *zap.Logger
}

func NewOrderService(store OrderStore, shippers ShipperStore, locations LocationStore, ids IDGenerator, publisher OrderPublisher, logger *zap.Logger) *OrderService {
	return &OrderService{
		Store:     store,
		Shippers:  shippers,
		Locations: locations,
		IDs:       ids,
		Publisher: publisher,
		now:       timeutil.Now,
		logger:    logger.Named("orders"),
	}
}

// SetClock replaces the time source.
func (s *OrderService) SetClock(c timeutil.Clock) {
	s.now = c
}

func (s *OrderService) List(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.Store.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return orders, nil
}

// ListByShipperCode resolves a shipper by its generated code and returns its orders.
func (s *OrderService) ListByShipperCode(ctx context.Context, code string) (*models.Shipper, []*models.Order, error) {
	shipper, err := s.Shippers.GetByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, ErrShipperNotFound
	}
	if err != nil {
		return nil, nil, storeErr(err)
	}

	orders, err := s.Store.ListByShipper(ctx, shipper.ID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	return shipper, orders, nil
}

func (s *OrderService) GetByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	order, err := s.Store.GetByTrackingID(ctx, strings.TrimSpace(trackingID))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return order, nil
}

// refs memoizes reference lookups within one batch.
type refs struct {
	shippers map[uuid.UUID]*models.Shipper
	states   map[uuid.UUID]*models.State
	cities   map[uuid.UUID]*models.City
}

// Create validates and inserts a batch of orders atomically. Every order gets a tracking id
// and starts Pending unless the request names another status.
func (s *OrderService) Create(ctx context.Context, reqs []models.CreateOrderRequest) ([]*models.Order, error) {
	if len(reqs) == 0 {
		return []*models.Order{}, nil
	}

	r := refs{
		shippers: map[uuid.UUID]*models.Shipper{},
		states:   map[uuid.UUID]*models.State{},
		cities:   map[uuid.UUID]*models.City{},
	}
	now := s.now()
	batchIDs := make(map[string]bool, len(reqs))
	orders := make([]*models.Order, 0, len(reqs))

	for i := range reqs {
		order, err := s.build(ctx, &r, i, &reqs[i], now)
		if err != nil {
			return nil, err
		}

		// Tracking ids must also be distinct within the batch, which the store probe cannot see.
		for attempt := 0; order.TrackingID == ""; attempt++ {
			if attempt == idgen.DefaultMaxAttempts {
				return nil, idgen.ErrExhausted
			}
			id, err := s.IDs.Generate(ctx, idgen.KindOrder)
			if err != nil {
				return nil, err
			}
			if !batchIDs[id] {
				batchIDs[id] = true
				order.TrackingID = id
			}
		}
		orders = append(orders, order)
	}

	reissue := func(ctx context.Context) (string, error) {
		return s.IDs.Generate(ctx, idgen.KindOrder)
	}
	if err := s.Store.CreateBatch(ctx, orders, reissue); err != nil {
		var fk *repositories.ForeignKeyError
		if errors.As(err, &fk) {
			return nil, ErrOrderInvalid.Wrap(err)
		}
		if repositories.IsDuplicate(err, repositories.ConstraintOrderTrackingID) {
			return nil, idgen.ErrExhausted.Wrap(err)
		}
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, err
		}
		return nil, storeErr(err)
	}

	metrics.OrdersCreated.Add(float64(len(orders)))
	s.logger.Info("orders created", zap.Int("count", len(orders)))

	if s.Publisher != nil {
		for _, o := range orders {
			s.Publisher.Publish(models.OrderEvent{Type: "order.created", Order: o})
		}
	}
	return orders, nil
}

func (s *OrderService) build(ctx context.Context, r *refs, i int, req *models.CreateOrderRequest, now time.Time) (*models.Order, error) {
	if err := validate.Struct(req); err != nil {
		return nil, orderErr(i, "%s", describe(err))
	}

	shipperID, err := uuid.Parse(req.ShipperID)
	if err != nil {
		return nil, orderErr(i, "invalid shipper_id")
	}
	stateID, err := uuid.Parse(req.StateID)
	if err != nil {
		return nil, orderErr(i, "invalid state_id")
	}
	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		return nil, orderErr(i, "invalid city_id")
	}

	if _, ok := r.shippers[shipperID]; !ok {
		shipper, err := s.Shippers.Get(ctx, shipperID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, orderErr(i, "shipper not found")
		}
		if err != nil {
			return nil, storeErr(err)
		}
		r.shippers[shipperID] = shipper
	}
	if _, ok := r.states[stateID]; !ok {
		state, err := s.Locations.GetState(ctx, stateID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, orderErr(i, "state not found")
		}
		if err != nil {
			return nil, storeErr(err)
		}
		r.states[stateID] = state
	}
	city, ok := r.cities[cityID]
	if !ok {
		city, err = s.Locations.GetCity(ctx, cityID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, orderErr(i, "city not found")
		}
		if err != nil {
			return nil, storeErr(err)
		}
		r.cities[cityID] = city
	}
	if city.StateID != stateID {
		return nil, orderErr(i, "city does not belong to the specified state")
	}

	orderDate := now
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}
	status := req.Status
	if status == "" {
		status = models.OrderStatusPending
	}

	shipper := r.shippers[shipperID]
	return &models.Order{
		ShipperID:       shipperID,
		OrderDate:       orderDate,
		DeliveryDate:    *req.DeliveryDate,
		CustomerName:    strings.TrimSpace(req.CustomerName),
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerAddress: strings.TrimSpace(req.CustomerAddress),
		StateID:         stateID,
		CityID:          cityID,
		Payment:         req.Payment,
		Status:          status,
		TotalAmount:     *req.TotalAmount,
		ShipperCode:     shipper.Code,
		ShipperName:     shipper.Name,
		ShipperPhone:    shipper.Phone,
		ShipperAddress:  shipper.Address,
		StateName:       r.states[stateID].Name,
		CityName:        city.Name,
		CityShort:       city.Short,
	}, nil
}

func orderErr(i int, format string, args ...any) error {
	e := *ErrOrderInvalid
	e.Message = fmt.Sprintf("order %d: ", i) + fmt.Sprintf(format, args...)
	return &e
}
