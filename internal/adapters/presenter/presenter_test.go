package presenter_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"restaurant/internal/adapters/presenter"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/domain/model/table"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qrBase = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="

func sampleOrder(t *testing.T) *order.Order {
	t.Helper()
	price, err := kernel.MoneyFromString("12.5")
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), "T3", time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC), []order.ItemDraft{
		{Name: "Jalea", Quantity: 2, UnitPrice: price, Note: "extra lime"},
	})
	require.NoError(t, err)
	return o
}

func TestOrderPresenter_Order(t *testing.T) {
	p := presenter.NewOrderPresenter(presenter.QRConfig{BaseURL: qrBase, Restaurant: "Punto Marisco"})
	o := sampleOrder(t)

	view := p.Order(o)

	assert.Equal(t, o.ID().String(), view.ID)
	assert.Equal(t, "T3", view.Table)
	assert.Equal(t, "IN_PROGRESS", view.Status)
	assert.Equal(t, "25.00", view.Total)
	assert.False(t, view.Billed)
	assert.Empty(t, view.PaymentMethod)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "12.50", view.Items[0].UnitPrice)
	assert.Equal(t, "NORMAL", view.Items[0].EditState)

	require.True(t, strings.HasPrefix(view.QRURL, qrBase))
	payload, err := url.QueryUnescape(strings.TrimPrefix(view.QRURL, qrBase))
	require.NoError(t, err)
	assert.Contains(t, payload, "Table: T3")
	assert.Contains(t, payload, "Total: 25.00")
	assert.Contains(t, payload, "Time: 2026-03-14 18:30")
	assert.Contains(t, payload, "Restaurant: Punto Marisco")
}

func TestOrderPresenter_EncodeOrder(t *testing.T) {
	p := presenter.NewOrderPresenter(presenter.QRConfig{})
	o := sampleOrder(t)
	require.NoError(t, o.Invoice(order.Card))

	raw, err := p.EncodeOrder(o)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "INVOICED", decoded["status"])
	assert.Equal(t, true, decoded["billed"])
	assert.Equal(t, "CARD", decoded["paymentMethod"])
	assert.Equal(t, "25.00", decoded["total"])
	assert.NotContains(t, decoded, "qrUrl")
	assert.NotContains(t, decoded, "version")
}

func TestTable(t *testing.T) {
	tbl, err := table.NewTable(kernel.NewUUID(), "Patio")
	require.NoError(t, err)

	view := presenter.Table(tbl)

	assert.Equal(t, "Patio", view.Name)
	assert.Equal(t, "FREE", view.Occupancy)
	assert.Nil(t, view.UnbilledOrders)
}
