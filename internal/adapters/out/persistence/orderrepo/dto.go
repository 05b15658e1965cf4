package orderrepo

import (
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderDTO struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Table         string          `gorm:"column:table_name;type:varchar(100);not null;index"`
	Status        int             `gorm:"type:smallint;not null;index"`
	CreatedAt     time.Time       `gorm:"not null;index"`
	Total         decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Billed        bool            `gorm:"not null;index"`
	PaymentMethod *int            `gorm:"type:smallint"`
	Version       int             `gorm:"not null"`
	LineItems     []LineItemDTO   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

type LineItemDTO struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	Name      string          `gorm:"type:varchar(255);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Note      string          `gorm:"type:text"`
	EditState int             `gorm:"type:smallint;not null"`
}

func (LineItemDTO) TableName() string {
	return "order_line_items"
}

func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()
	items := o.Items()
	lineItems := make([]LineItemDTO, 0, len(items))

	for position, item := range items {
		lineItems = append(lineItems, LineItemDTO{
			ID:        item.ID().Bytes(),
			OrderID:   orderID,
			Position:  position,
			Name:      item.Name(),
			Quantity:  item.Quantity(),
			UnitPrice: item.UnitPrice().Amount(),
			Note:      item.Note(),
			EditState: int(item.EditState()),
		})
	}

	var paymentMethod *int
	if method := o.PaymentMethod(); method != nil {
		raw := int(*method)
		paymentMethod = &raw
	}

	return OrderDTO{
		ID:            orderID,
		Table:         o.TableName(),
		Status:        int(o.Status()),
		CreatedAt:     o.CreatedAt().UTC(),
		Total:         o.Total().Rounded(),
		Billed:        o.IsBilled(),
		PaymentMethod: paymentMethod,
		Version:       o.Version(),
		LineItems:     lineItems,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(dto.LineItems))
	for _, itemDTO := range dto.LineItems {
		itemID, idErr := kernel.UUIDFromBytes(itemDTO.ID[:])
		if idErr != nil {
			return nil, idErr
		}

		price, priceErr := kernel.NewMoney(itemDTO.UnitPrice)
		if priceErr != nil {
			return nil, priceErr
		}

		item, itemErr := order.RestoreLineItem(
			itemID,
			itemDTO.Name,
			itemDTO.Quantity,
			price,
			itemDTO.Note,
			order.EditState(itemDTO.EditState),
		)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	var paymentMethod *order.PaymentMethod
	if dto.PaymentMethod != nil {
		method := order.PaymentMethod(*dto.PaymentMethod)
		paymentMethod = &method
	}

	return order.RestoreOrder(
		id,
		dto.Table,
		order.Status(dto.Status),
		dto.CreatedAt,
		dto.Billed,
		paymentMethod,
		items,
		dto.Version,
	)
}
