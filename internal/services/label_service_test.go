package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pozt-backend/internal/models"
)

type archive struct {
	keys []string
	err  error
}

func (a *archive) Put(_ context.Context, key string, data []byte, contentType string) error {
	a.keys = append(a.keys, key)
	return a.err
}

func TestAWB(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	f := newOrderFixture(t, e)

	orders, err := e.orderSvc.Create(ctx, []models.CreateOrderRequest{f.request(499.5)})
	require.NoError(t, err)

	store := &archive{}
	labels := NewLabelService(e.orderSvc, store, zap.NewNop())

	pdf, order, err := labels.AWB(ctx, orders[0].TrackingID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
	assert.Equal(t, orders[0].TrackingID, order.TrackingID)
	assert.Equal(t, []string{orders[0].TrackingID + ".pdf"}, store.keys)

	// Archive failures do not fail the download.
	store.err = errors.New("bucket unavailable")
	_, _, err = labels.AWB(ctx, orders[0].TrackingID)
	assert.NoError(t, err)

	_, _, err = labels.AWB(ctx, "POZT404")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPaymentLabel(t *testing.T) {
	assert.Equal(t, "COD", (&models.Order{Payment: models.PaymentCOD}).PaymentLabel())
	assert.Equal(t, "Prepaid", (&models.Order{Payment: models.PaymentPrepaid}).PaymentLabel())
}
