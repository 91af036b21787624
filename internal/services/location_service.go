package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pozt-backend/internal/cache"
	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
)

// LocationService manages the state and city reference lists.
type LocationService struct {
	Store  LocationStore
	Cache  ListCache
	logger *zap.Logger
}

func NewLocationService(store LocationStore, c ListCache, logger *zap.Logger) *LocationService {
	return &LocationService{Store: store, Cache: c, logger: logger.Named("locations")}
}

func (s *LocationService) ListStates(ctx context.Context) ([]*models.State, error) {
	var states []*models.State
	if s.Cache.GetJSON(ctx, cache.StatesKey, &states) {
		return states, nil
	}

	states, err := s.Store.ListStates(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	s.Cache.SetJSON(ctx, cache.StatesKey, states)
	return states, nil
}

func (s *LocationService) CreateState(ctx context.Context, req *models.CreateStateRequest) (*models.State, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrStateNameRequired
	}

	state := &models.State{Name: name}
	if err := s.Store.CreateState(ctx, state); err != nil {
		if repositories.IsDuplicate(err, "") {
			return nil, ErrStateExists
		}
		return nil, storeErr(err)
	}

	s.Cache.Invalidate(ctx, cache.StatesKey)
	return state, nil
}

// ListCities returns cities with their state names. An empty list is reported as not found.
func (s *LocationService) ListCities(ctx context.Context) ([]*models.City, error) {
	var cities []*models.City
	if !s.Cache.GetJSON(ctx, cache.CitiesKey, &cities) {
		var err error
		cities, err = s.Store.ListCities(ctx)
		if err != nil {
			return nil, storeErr(err)
		}
		s.Cache.SetJSON(ctx, cache.CitiesKey, cities)
	}

	if len(cities) == 0 {
		return nil, ErrNoCities
	}
	return cities, nil
}

func (s *LocationService) CreateCity(ctx context.Context, req *models.CreateCityRequest) (*models.City, error) {
	name := strings.TrimSpace(req.Name)
	rawState := strings.TrimSpace(req.State())
	if name == "" || rawState == "" {
		return nil, ErrCityFields
	}

	stateID, err := uuid.Parse(rawState)
	if err != nil {
		return nil, ErrStateNotFound
	}
	state, err := s.Store.GetState(ctx, stateID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}

	status := true
	if req.Status != nil {
		status = *req.Status
	}

	city := &models.City{
		Name:      name,
		Short:     strings.TrimSpace(req.Short),
		Status:    status,
		StateID:   state.ID,
		StateName: state.Name,
	}
	if err := s.Store.CreateCity(ctx, city); err != nil {
		if repositories.IsDuplicate(err, repositories.ConstraintCityName) {
			return nil, ErrCityExists
		}
		return nil, storeErr(err)
	}

	s.Cache.Invalidate(ctx, cache.CitiesKey)
	s.logger.Info("city created", zap.String("city", city.Name), zap.String("state", state.Name))
	return city, nil
}
