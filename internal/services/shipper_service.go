package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pozt-backend/internal/idgen"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
)

// maxCodeCollisions bounds re-draws when the insert itself hits the unique code constraint.
const maxCodeCollisions = 3

type ShipperService struct {
	Store     ShipperStore
	Locations LocationStore
	IDs       IDGenerator
	logger    *zap.Logger
}

func NewShipperService(store ShipperStore, locations LocationStore, ids IDGenerator, logger *zap.Logger) *ShipperService {
	return &ShipperService{Store: store, Locations: locations, IDs: ids, logger: logger.Named("shippers")}
}

func (s *ShipperService) List(ctx context.Context) ([]*models.Shipper, error) {
	shippers, err := s.Store.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	return shippers, nil
}

func (s *ShipperService) GetByCode(ctx context.Context, code string) (*models.Shipper, error) {
	shipper, err := s.Store.GetByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrShipperNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return shipper, nil
}

// Create onboards a shipper under a freshly generated code.
func (s *ShipperService) Create(ctx context.Context, req *models.CreateShipperRequest) (*models.Shipper, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		if hasRequiredFailure(err) {
			return nil, ErrShipperFields
		}
		return nil, ErrShipperFields.Wrap(errors.New(describe(err)))
	}

	stateID, err := uuid.Parse(req.StateID)
	if err != nil {
		return nil, ErrStateIDFormat
	}
	state, err := s.Locations.GetState(ctx, stateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrShipperStateNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	cityID, err := uuid.Parse(req.CityID)
	if err != nil {
		return nil, ErrCityIDFormat
	}
	city, err := s.Locations.GetCity(ctx, cityID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrShipperCityNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	shipper := &models.Shipper{
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     strings.TrimSpace(req.Phone),
		Address:   strings.TrimSpace(req.Address),
		StateID:   state.ID,
		CityID:    city.ID,
		StateName: state.Name,
		CityName:  city.Name,
	}

	for attempt := 0; ; attempt++ {
		code, err := s.IDs.Generate(ctx, idgen.KindShipper)
		if err != nil {
			return nil, err
		}
		shipper.Code = code

		err = s.Store.Create(ctx, shipper)
		switch {
		case err == nil:
			s.logger.Info("shipper created", zap.String("code", shipper.Code), zap.String("email", shipper.Email))
			return shipper, nil
		case repositories.IsDuplicate(err, repositories.ConstraintShipperEmail):
			return nil, ErrShipperEmailTaken
		case repositories.IsDuplicate(err, repositories.ConstraintShipperCode) && attempt < maxCodeCollisions:
			s.logger.Warn("shipper code taken at insert, redrawing", zap.String("code", code))
			continue
		case repositories.IsDuplicate(err, repositories.ConstraintShipperCode):
			return nil, idgen.ErrExhausted.Wrap(err)
		default:
			return nil, storeErr(err)
		}
	}
}
