package domain

import "time"

// BasketLine is one product in a basket. Quantity is always at least 1; the
// unit price is read live from the catalog until checkout.
type BasketLine struct {
	ProductID int64
	Quantity  int
}

// Basket aggregates a user's selected products. ProductIDs are unique across
// Lines, which keep first-add order.
type Basket struct {
	UserID    int64
	Lines     []BasketLine
	Version   int64
	UpdatedAt time.Time
}

func (b Basket) IsEmpty() bool { return len(b.Lines) == 0 }

// Quantity returns the quantity of productID, or 0 when the basket has no such line.
func (b Basket) Quantity(productID int64) int {
	if i := b.index(productID); i >= 0 {
		return b.Lines[i].Quantity
	}
	return 0
}

// Add increments an existing line or appends a new one with quantity 1.
func (b *Basket) Add(productID int64) {
	if i := b.index(productID); i >= 0 {
		b.Lines[i].Quantity++
		return
	}
	b.Lines = append(b.Lines, BasketLine{ProductID: productID, Quantity: 1})
}

// Increase increments an existing line. It reports false when the line is absent.
func (b *Basket) Increase(productID int64) bool {
	i := b.index(productID)
	if i < 0 {
		return false
	}
	b.Lines[i].Quantity++
	return true
}

// Decrease decrements an existing line and drops it when it reaches zero.
// It reports false when the line is absent.
func (b *Basket) Decrease(productID int64) bool {
	i := b.index(productID)
	if i < 0 {
		return false
	}
	if b.Lines[i].Quantity <= 1 {
		b.removeAt(i)
		return true
	}
	b.Lines[i].Quantity--
	return true
}

// Remove drops the line for productID if present.
func (b *Basket) Remove(productID int64) bool {
	i := b.index(productID)
	if i < 0 {
		return false
	}
	b.removeAt(i)
	return true
}

func (b *Basket) Clear() { b.Lines = nil }

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (b Basket) Clone() Basket {
	out := b
	out.Lines = append([]BasketLine(nil), b.Lines...)
	return out
}

func (b Basket) index(productID int64) int {
	for i, l := range b.Lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func (b *Basket) removeAt(i int) {
	b.Lines = append(b.Lines[:i], b.Lines[i+1:]...)
}
