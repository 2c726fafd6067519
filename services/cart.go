package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"teashop/models"
	"teashop/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reasons shown to the buyer for removed or adjusted cart lines.
const (
	ReasonInvalidQuantity = "invalid quantity"
	ReasonUnavailable     = "product is no longer available"
	ReasonOutOfStock      = "out of stock"
)

type cartEntry struct {
	id   primitive.ObjectID
	line models.CartLine
	qty  int
}

// normaliseCart parses ids and quantities and merges repeated products.
// Lines that cannot be used are returned as notices.
func normaliseCart(lines []models.CartLine) ([]cartEntry, []models.CartNotice) {
	var (
		entries []cartEntry
		removed []models.CartNotice
		index   = map[primitive.ObjectID]int{}
	)
	for _, l := range lines {
		if l.Quantity <= 0 || l.Quantity != math.Trunc(l.Quantity) || l.Quantity > math.MaxInt32 {
			removed = append(removed, models.CartNotice{ProductID: l.ProductID, Reason: ReasonInvalidQuantity})
			continue
		}
		id, err := primitive.ObjectIDFromHex(l.ProductID)
		if err != nil {
			removed = append(removed, models.CartNotice{ProductID: l.ProductID, Reason: ReasonUnavailable})
			continue
		}
		if i, ok := index[id]; ok {
			entries[i].qty += int(l.Quantity)
			continue
		}
		index[id] = len(entries)
		entries = append(entries, cartEntry{id: id, line: l, qty: int(l.Quantity)})
	}
	return entries, removed
}

// ValidateCart refreshes a client cart against the live catalog. It never
// writes: lines are dropped or clamped in the result only.
func (c *Checkout) ValidateCart(ctx context.Context, lines []models.CartLine) (*models.ValidatedCart, error) {
	entries, removed := normaliseCart(lines)
	out := &models.ValidatedCart{
		Lines:   []models.ValidatedLine{},
		Removed: removed,
		Changed: []models.CartNotice{},
	}
	if out.Removed == nil {
		out.Removed = []models.CartNotice{}
	}

	subtotal := decimal.Zero
	for _, e := range entries {
		p, err := c.Products.FindByID(ctx, e.id)
		if errors.Is(err, utils.ErrNotFound) {
			out.Removed = append(out.Removed, models.CartNotice{ProductID: e.line.ProductID, Reason: ReasonUnavailable})
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.OnShelf {
			out.Removed = append(out.Removed, models.CartNotice{ProductID: e.line.ProductID, Name: p.Name, Reason: ReasonUnavailable})
			continue
		}

		qty := e.qty
		if qty > p.Stock {
			if p.Stock <= 0 {
				out.Removed = append(out.Removed, models.CartNotice{ProductID: e.line.ProductID, Name: p.Name, Reason: ReasonOutOfStock})
				continue
			}
			qty = p.Stock
			out.Changed = append(out.Changed, models.CartNotice{
				ProductID: e.line.ProductID, Name: p.Name,
				Reason: fmt.Sprintf("quantity reduced from %d to %d, only %d in stock", e.qty, qty, p.Stock),
			})
		}
		if !sameMoney(e.line.Price, p.Price) {
			out.Changed = append(out.Changed, models.CartNotice{
				ProductID: e.line.ProductID, Name: p.Name,
				Reason: fmt.Sprintf("price changed from $%.2f to $%.2f", e.line.Price, p.Price),
			})
		}
		if !sameMoney(e.line.Discount, p.Discount) {
			out.Changed = append(out.Changed, models.CartNotice{
				ProductID: e.line.ProductID, Name: p.Name,
				Reason: fmt.Sprintf("discount changed from %g%% to %g%%", e.line.Discount, p.Discount),
			})
		}

		amounts := priceLine(p.Price, p.Discount, qty, p.GSTIncluded)
		subtotal = subtotal.Add(amounts.Total)
		out.Lines = append(out.Lines, models.ValidatedLine{
			ProductID:   p.ID.Hex(),
			Name:        p.Name,
			Quantity:    qty,
			Price:       p.Price,
			Discount:    p.Discount,
			Stock:       p.Stock,
			GSTIncluded: p.GSTIncluded,
			LineTotal:   money(amounts.Total),
		})
	}
	out.Subtotal = money(subtotal)
	return out, nil
}

func sameMoney(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(2).Equal(decimal.NewFromFloat(b).Round(2))
}
