package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fotoclick/backend/pkg/db/models"
	"github.com/fotoclick/backend/pkg/enums"
)

// OrderItemDTO is one frozen order line.
type OrderItemDTO struct {
	ID       int64           `json:"id"`
	PhotoID  int64           `json:"photo_id"`
	Title    *string         `json:"title,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Format   *string         `json:"format,omitempty"`
}

// OrderDTO is the transport shape of an order.
type OrderDTO struct {
	ID                int64                `json:"id"`
	PublicID          uuid.UUID            `json:"public_id"`
	UserID            *int64               `json:"user_id,omitempty"`
	CustomerEmail     *string              `json:"customer_email,omitempty"`
	Total             decimal.Decimal      `json:"total"`
	PaymentMethod     *enums.PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus     enums.PaymentStatus  `json:"payment_status"`
	OrderStatus       enums.OrderStatus    `json:"order_status"`
	ExternalPaymentID *string              `json:"external_payment_id,omitempty"`
	Items             []OrderItemDTO       `json:"items"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// CreateOrderItemInput is one requested line. The price is snapshotted
// from the photo's current price at creation, never taken from the client.
type CreateOrderItemInput struct {
	PhotoID  int64   `json:"photo_id" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"required,gt=0"`
	Format   *string `json:"format,omitempty"`
}

// CreateOrderInput creates an order for the calling identity.
type CreateOrderInput struct {
	Items         []CreateOrderItemInput `json:"items" validate:"required,min=1,dive"`
	CustomerEmail *string                `json:"customer_email,omitempty" validate:"omitempty,email"`
	DiscountID    *int64                 `json:"-"`
}

// MarkAsPaidInput confirms payment on an order. FinalStatus, when set,
// is written with the payment flip in the same transaction; nil advances
// non-paid statuses to paid.
type MarkAsPaidInput struct {
	OrderID           int64
	Method            enums.PaymentMethod
	ExternalPaymentID *string
	FinalStatus       *enums.OrderStatus
}

// UpdateStatusInput moves an order through its lifecycle. Method is only
// consulted when the transition implies confirming a pending payment.
type UpdateStatusInput struct {
	Status enums.OrderStatus    `json:"status" validate:"required"`
	Method *enums.PaymentMethod `json:"payment_method,omitempty"`
}

// EditOrderInput is a raw field patch with no lifecycle side effects.
// Patching payment_status here settles nothing.
type EditOrderInput struct {
	CustomerEmail     *string              `json:"customer_email,omitempty" validate:"omitempty,email"`
	PaymentMethod     *enums.PaymentMethod `json:"payment_method,omitempty"`
	PaymentStatus     *enums.PaymentStatus `json:"payment_status,omitempty"`
	OrderStatus       *enums.OrderStatus   `json:"order_status,omitempty"`
	ExternalPaymentID *string              `json:"external_payment_id,omitempty"`
	DiscountID        *int64               `json:"discount_id,omitempty"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	UserID        *int64
	GuestToken    *string
	PaymentStatus *enums.PaymentStatus
	OrderStatus   *enums.OrderStatus
}

// OrderListResult is a page of orders.
type OrderListResult struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

func dtoFromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}

	dto := &OrderDTO{
		ID:                order.ID,
		PublicID:          order.PublicID,
		UserID:            order.UserID,
		CustomerEmail:     order.CustomerEmail,
		Total:             order.Total,
		PaymentMethod:     order.PaymentMethod,
		PaymentStatus:     order.PaymentStatus,
		OrderStatus:       order.OrderStatus,
		ExternalPaymentID: order.ExternalPaymentID,
		Items:             make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	}

	for _, item := range order.Items {
		line := OrderItemDTO{
			ID:       item.ID,
			PhotoID:  item.PhotoID,
			Price:    item.Price,
			Quantity: item.Quantity,
			Format:   item.Format,
		}
		if item.Photo != nil {
			line.Title = item.Photo.Title
		}
		dto.Items = append(dto.Items, line)
	}
	return dto
}
