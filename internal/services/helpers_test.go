package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pozt-backend/internal/auth"
	"pozt-backend/internal/cache"
	"pozt-backend/internal/idgen"
	"pozt-backend/internal/models"
	"pozt-backend/internal/notify"
	"pozt-backend/internal/repositories/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
	fail error
}

func (o *outbox) Name() string { return "outbox" }

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		return o.fail
	}
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type recorder struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (r *recorder) Publish(e models.OrderEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// scriptedIDs returns queued identifiers before falling back to a real generator.
type scriptedIDs struct {
	mu     sync.Mutex
	queue  map[idgen.Kind][]string
	next   IDGenerator
	called int
}

func (s *scriptedIDs) Generate(ctx context.Context, kind idgen.Kind) (string, error) {
	s.mu.Lock()
	s.called++
	if q := s.queue[kind]; len(q) > 0 {
		s.queue[kind] = q[1:]
		s.mu.Unlock()
		return q[0], nil
	}
	s.mu.Unlock()
	if s.next == nil {
		return "", errors.New("no identifiers queued")
	}
	return s.next.Generate(ctx, kind)
}

type env struct {
	clock     *clock
	outbox    *outbox
	users     *memory.Users
	otps      *memory.OTPs
	locations *memory.Locations
	shippers  *memory.Shippers
	orders    *memory.Orders
	jwt       *auth.JWTManager
	ids       *scriptedIDs
	feed      *recorder

	otpSvc      *OTPService
	userSvc     *UserService
	locationSvc *LocationService
	shipperSvc  *ShipperService
	orderSvc    *OrderService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := zap.NewNop()

	e := &env{
		clock:     newClock(),
		outbox:    &outbox{},
		users:     memory.NewUsers(),
		otps:      memory.NewOTPs(),
		locations: memory.NewLocations(),
		shippers:  memory.NewShippers(),
		orders:    memory.NewOrders(),
		feed:      &recorder{},
	}
	e.jwt = auth.NewJWTManager("secret", "pozt-test", time.Hour, 5*time.Minute)
	e.jwt.SetClock(e.clock.Now)

	gen := idgen.New(map[idgen.Kind]idgen.ProbeFunc{
		idgen.KindShipper: e.shippers.CodeExists,
		idgen.KindOrder:   e.orders.TrackingIDExists,
	})
	e.ids = &scriptedIDs{queue: map[idgen.Kind][]string{}, next: gen}

	e.otpSvc = NewOTPService(e.otps, e.outbox, DefaultOTPTTL, DefaultOTPResendCooldown, logger)
	e.otpSvc.SetClock(e.clock.Now)
	e.userSvc = NewUserService(e.users, e.locations, e.otpSvc, e.jwt, logger)
	e.locationSvc = NewLocationService(e.locations, cache.Disabled(logger), logger)
	e.shipperSvc = NewShipperService(e.shippers, e.locations, e.ids, logger)
	e.orderSvc = NewOrderService(e.orders, e.shippers, e.locations, e.ids, e.feed, logger)
	e.orderSvc.SetClock(e.clock.Now)
	return e
}

func (e *env) seedLocation(t *testing.T, stateName, cityName string) (*models.State, *models.City) {
	t.Helper()
	ctx := context.Background()
	state := &models.State{Name: stateName}
	require.NoError(t, e.locations.CreateState(ctx, state))
	city := &models.City{Name: cityName, Short: cityName[:3], Status: true, StateID: state.ID}
	require.NoError(t, e.locations.CreateCity(ctx, city))
	return state, city
}

func (e *env) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	state, city := e.seedLocation(t, "Maharashtra-"+email, "Pune-"+email)
	user, err := e.userSvc.Register(context.Background(), &models.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     "Asha",
		Phone:    "9999999999",
		StateID:  state.ID.String(),
		CityID:   city.ID.String(),
	})
	require.NoError(t, err)
	return user
}

func (e *env) currentCode(t *testing.T, email string) string {
	t.Helper()
	otp, err := e.otps.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	return otp.Code
}
