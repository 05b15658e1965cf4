// Package presenter turns domain aggregates into the JSON views shared by the HTTP API,
// the live viewer streams and the event relay.
package presenter

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/domain/model/table"
)

type LineItemView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Note      string `json:"note,omitempty"`
	EditState string `json:"editState"`
}

type OrderView struct {
	ID            string         `json:"id"`
	Table         string         `json:"table"`
	Status        string         `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	Total         string         `json:"total"`
	Billed        bool           `json:"billed"`
	PaymentMethod string         `json:"paymentMethod,omitempty"`
	QRURL         string         `json:"qrUrl,omitempty"`
	Items         []LineItemView `json:"items"`
}

type TableView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Occupancy      string `json:"occupancy"`
	UnbilledOrders *int64 `json:"unbilledOrders,omitempty"`
}

// QRConfig describes the receipt QR code attached to every order view. An empty BaseURL
// disables it.
type QRConfig struct {
	BaseURL    string
	Restaurant string
	Location   *time.Location
}

type OrderPresenter struct {
	qr QRConfig
}

func NewOrderPresenter(qr QRConfig) OrderPresenter {
	if qr.Location == nil {
		qr.Location = time.UTC
	}
	return OrderPresenter{qr: qr}
}

func (p OrderPresenter) Order(o *order.Order) OrderView {
	items := o.Items()
	views := make([]LineItemView, 0, len(items))
	for _, item := range items {
		views = append(views, LineItemView{
			ID:        item.ID().String(),
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().String(),
			Note:      item.Note(),
			EditState: item.EditState().String(),
		})
	}

	view := OrderView{
		ID:        o.ID().String(),
		Table:     o.TableName(),
		Status:    o.Status().String(),
		CreatedAt: o.CreatedAt().In(p.qr.Location),
		Total:     o.Total().String(),
		Billed:    o.IsBilled(),
		QRURL:     p.qrURL(o),
		Items:     views,
	}
	if method := o.PaymentMethod(); method != nil {
		view.PaymentMethod = method.String()
	}
	return view
}

func (p OrderPresenter) Orders(orders []*order.Order) []OrderView {
	views := make([]OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, p.Order(o))
	}
	return views
}

// EncodeOrder renders the order view as JSON.
func (p OrderPresenter) EncodeOrder(o *order.Order) ([]byte, error) {
	return json.Marshal(p.Order(o))
}

func Table(t *table.Table) TableView {
	return TableView{
		ID:        t.ID().String(),
		Name:      t.Name(),
		Occupancy: t.Occupancy().String(),
	}
}

func (p OrderPresenter) qrURL(o *order.Order) string {
	if p.qr.BaseURL == "" {
		return ""
	}

	id := o.ID().String()
	payload := fmt.Sprintf("Order #%s\nTable: %s\nTotal: %s\nTime: %s\nRestaurant: %s",
		id[:8],
		o.TableName(),
		o.Total().String(),
		o.CreatedAt().In(p.qr.Location).Format("2006-01-02 15:04"),
		p.qr.Restaurant,
	)
	return p.qr.BaseURL + url.QueryEscape(payload)
}
