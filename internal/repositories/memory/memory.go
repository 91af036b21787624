// Package memory holds in-memory stores with the same contracts as the pgx repositories,
// including unique-constraint errors. Service and handler tests run against them.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"pozt-backend/internal/models"
	"pozt-backend/internal/repositories"
)

func dup(constraint string) error {
	return &repositories.DuplicateError{Constraint: constraint}
}

type Users struct {
	mu   sync.Mutex
	rows map[string]*models.User
}

func NewUsers() *Users {
	return &Users{rows: map[string]*models.User{}}
}

func (s *Users) Create(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[u.Email]; ok {
		return dup(repositories.ConstraintUserEmail)
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	c := *u
	s.rows[u.Email] = &c
	return nil
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *u
	return &c, nil
}

type OTPs struct {
	mu   sync.Mutex
	rows map[string]*models.OTP
}

func NewOTPs() *OTPs {
	return &OTPs{rows: map[string]*models.OTP{}}
}

func (s *OTPs) Replace(ctx context.Context, otp *models.OTP, notBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rows[otp.Email]; ok && !cur.Used && cur.Delivered && cur.CreatedAt.After(notBefore) {
		return repositories.ErrOTPCooldown
	}
	otp.ID = uuid.New()
	otp.Used = false
	otp.Delivered = false
	otp.UpdatedAt = otp.CreatedAt
	c := *otp
	s.rows[otp.Email] = &c
	return nil
}

func (s *OTPs) GetByEmail(ctx context.Context, email string) (*models.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (s *OTPs) FindUnused(ctx context.Context, email, code string) (*models.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.rows[email]
	if !ok || o.Used || o.Code != code {
		return nil, repositories.ErrNotFound
	}
	c := *o
	return &c, nil
}

func (s *OTPs) MarkUsed(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.rows {
		if o.ID == id && !o.Used {
			o.Used = true
			return true, nil
		}
	}
	return false, nil
}

func (s *OTPs) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.rows {
		if o.ID == id {
			o.Delivered = true
		}
	}
	return nil
}

func (s *OTPs) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for email, o := range s.rows {
		if o.ExpiresAt.Before(cutoff) {
			delete(s.rows, email)
			n++
		}
	}
	return n, nil
}

// Expire moves the record for email so that it expired d ago.
func (s *OTPs) Expire(email string, now time.Time, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.rows[email]; ok {
		o.ExpiresAt = now.Add(-d)
	}
}

type Locations struct {
	mu     sync.Mutex
	states map[uuid.UUID]*models.State
	cities map[uuid.UUID]*models.City
}

func NewLocations() *Locations {
	return &Locations{states: map[uuid.UUID]*models.State{}, cities: map[uuid.UUID]*models.City{}}
}

func (s *Locations) CreateState(ctx context.Context, st *models.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.states {
		if strings.EqualFold(existing.Name, st.Name) {
			return dup(repositories.ConstraintStateName)
		}
	}
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	st.CreatedAt = time.Now()
	c := *st
	s.states[st.ID] = &c
	return nil
}

func (s *Locations) GetState(ctx context.Context, id uuid.UUID) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *st
	return &c, nil
}

func (s *Locations) ListStates(ctx context.Context) ([]*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.State{}
	for _, st := range s.states {
		c := *st
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Locations) CreateCity(ctx context.Context, city *models.City) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.states[city.StateID]; !ok {
		return &repositories.ForeignKeyError{Constraint: "cities_state_id_fkey"}
	}
	for _, existing := range s.cities {
		if existing.Name == city.Name {
			return dup(repositories.ConstraintCityName)
		}
	}
	if city.ID == uuid.Nil {
		city.ID = uuid.New()
	}
	city.CreatedAt = time.Now()
	c := *city
	s.cities[city.ID] = &c
	return nil
}

func (s *Locations) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	city, ok := s.cities[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *city
	c.StateName = s.states[city.StateID].Name
	return &c, nil
}

func (s *Locations) ListCities(ctx context.Context) ([]*models.City, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.City{}
	for _, city := range s.cities {
		c := *city
		c.StateName = s.states[city.StateID].Name
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type Shippers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Shipper
}

func NewShippers() *Shippers {
	return &Shippers{rows: map[uuid.UUID]*models.Shipper{}}
}

func (s *Shippers) Create(ctx context.Context, sh *models.Shipper) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.rows {
		if existing.Code == sh.Code {
			return dup(repositories.ConstraintShipperCode)
		}
		if existing.Email == sh.Email {
			return dup(repositories.ConstraintShipperEmail)
		}
	}
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	sh.CreatedAt = time.Now()
	c := *sh
	s.rows[sh.ID] = &c
	return nil
}

func (s *Shippers) CodeExists(ctx context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.rows {
		if sh.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *Shippers) Get(ctx context.Context, id uuid.UUID) (*models.Shipper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	c := *sh
	return &c, nil
}

func (s *Shippers) GetByCode(ctx context.Context, code string) (*models.Shipper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range s.rows {
		if sh.Code == code {
			c := *sh
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (s *Shippers) List(ctx context.Context) ([]*models.Shipper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Shipper{}
	for _, sh := range s.rows {
		c := *sh
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type Orders struct {
	mu   sync.Mutex
	rows []*models.Order
	seq  int
}

func NewOrders() *Orders {
	return &Orders{}
}

func (s *Orders) TrackingIDExists(ctx context.Context, trackingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.existsLocked(trackingID), nil
}

func (s *Orders) existsLocked(trackingID string) bool {
	for _, o := range s.rows {
		if o.TrackingID == trackingID {
			return true
		}
	}
	return false
}

// CreateBatch is all-or-nothing, like the transactional repository. reissue may probe this store,
// so it is called with the lock released and the whole batch is re-checked afterwards.
func (s *Orders) CreateBatch(ctx context.Context, orders []*models.Order, reissue repositories.ReissueFunc) error {
	attempts := make([]int, len(orders))
	for {
		s.mu.Lock()
		i := s.firstClashLocked(orders)
		if i < 0 {
			s.insertLocked(orders)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		if reissue == nil || attempts[i] >= 3 {
			return dup(repositories.ConstraintOrderTrackingID)
		}
		attempts[i]++
		id, err := reissue(ctx)
		if err != nil {
			return err
		}
		orders[i].TrackingID = id
	}
}

// firstClashLocked returns the index of the first order whose tracking id is stored or repeated
// earlier in the batch, or -1.
func (s *Orders) firstClashLocked(orders []*models.Order) int {
	taken := make(map[string]bool, len(orders))
	for i, o := range orders {
		if s.existsLocked(o.TrackingID) || taken[o.TrackingID] {
			return i
		}
		taken[o.TrackingID] = true
	}
	return -1
}

func (s *Orders) insertLocked(orders []*models.Order) {
	for _, o := range orders {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		s.seq++
		o.CreatedAt = time.Unix(int64(s.seq), 0)
		o.UpdatedAt = o.CreatedAt
		c := *o
		s.rows = append(s.rows, &c)
	}
}

func (s *Orders) List(ctx context.Context) ([]*models.Order, error) {
	return s.filter(func(*models.Order) bool { return true }), nil
}

func (s *Orders) ListByShipper(ctx context.Context, shipperID uuid.UUID) ([]*models.Order, error) {
	return s.filter(func(o *models.Order) bool { return o.ShipperID == shipperID }), nil
}

func (s *Orders) GetByTrackingID(ctx context.Context, trackingID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.rows {
		if o.TrackingID == trackingID {
			c := *o
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// filter returns matches newest first.
func (s *Orders) filter(keep func(*models.Order) bool) []*models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Order{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if keep(s.rows[i]) {
			c := *s.rows[i]
			out = append(out, &c)
		}
	}
	return out
}
