// Package cart holds the line-item arithmetic shared by checkout and quotes.
package cart

import "github.com/conectados420/storefront/internal/domain/catalog"

// defaultWeightKg is charged for products without a positive recorded weight.
const defaultWeightKg = 1.0

type Line struct {
	ProductID string   `json:"product_id"`
	Name      string   `json:"name,omitempty"`
	Quantity  int      `json:"quantity"`
	UnitPrice int64    `json:"unit_price"`
	WeightKg  *float64 `json:"weight_kg,omitempty"`
}

type Cart struct {
	Lines []Line `json:"lines"`
}

// Add merges qty into the product's line, creating it if needed.
func (c *Cart) Add(p catalog.Product, qty int) {
	if qty <= 0 {
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == p.ID {
			c.Lines[i].Quantity += qty
			return
		}
	}
	c.Lines = append(c.Lines, Line{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: catalog.EffectivePrice(p),
		WeightKg:  p.WeightKg,
	})
}

// Update sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) Update(productID string, qty int) {
	if qty <= 0 {
		c.Remove(productID)
		return
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity = qty
			return
		}
	}
}

func (c *Cart) Remove(productID string) {
	kept := c.Lines[:0]
	for _, line := range c.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	c.Lines = kept
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

func (c Cart) Count() int {
	count := 0
	for _, line := range c.Lines {
		count += line.Quantity
	}
	return count
}

func (c Cart) WeightKg() float64 {
	var weight float64
	for _, line := range c.Lines {
		w := defaultWeightKg
		if line.WeightKg != nil && *line.WeightKg > 0 {
			w = *line.WeightKg
		}
		weight += w * float64(line.Quantity)
	}
	return weight
}

func (c Cart) Empty() bool {
	return len(c.Lines) == 0
}
