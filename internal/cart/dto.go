package cart

import (
	"github.com/shopspring/decimal"

	"github.com/fotoclick/backend/pkg/db/models"
)

// CartItemView is one cart line priced at the photo's current price.
type CartItemView struct {
	ID        int64           `json:"id"`
	PhotoID   int64           `json:"photo_id"`
	Title     *string         `json:"title,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
	Available bool            `json:"available"`
}

// CartView is the transport shape of a cart. Total is always computed
// from current photo prices at read time, never persisted.
type CartView struct {
	ID            int64           `json:"id"`
	UserID        *int64          `json:"user_id,omitempty"`
	GuestToken    *string         `json:"guest_token,omitempty"`
	CustomerEmail *string         `json:"customer_email,omitempty"`
	Items         []CartItemView  `json:"items"`
	Total         decimal.Decimal `json:"total"`
}

// AddItemInput adds a photo to the cart.
type AddItemInput struct {
	PhotoID  int64 `json:"photo_id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// UpdateItemInput patches a line's quantity. Zero or below removes it.
type UpdateItemInput struct {
	Quantity int `json:"quantity"`
}

func viewFromModel(record *models.Cart) *CartView {
	if record == nil {
		return nil
	}

	view := &CartView{
		ID:            record.ID,
		UserID:        record.UserID,
		GuestToken:    record.GuestToken,
		CustomerEmail: record.CustomerEmail,
		Items:         make([]CartItemView, 0, len(record.Items)),
		Total:         decimal.Zero,
	}

	for _, item := range record.Items {
		line := CartItemView{
			ID:       item.ID,
			PhotoID:  item.PhotoID,
			Quantity: item.Quantity,
		}
		if item.Photo != nil {
			line.Title = item.Photo.Title
			line.UnitPrice = item.Photo.Price
			line.LineTotal = item.Photo.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = true
			view.Total = view.Total.Add(line.LineTotal)
		} else {
			line.UnitPrice = decimal.Zero
			line.LineTotal = decimal.Zero
		}
		view.Items = append(view.Items, line)
	}
	return view
}
