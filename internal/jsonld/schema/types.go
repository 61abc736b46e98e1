// Package schema provides typed Go structs for schema.org JSON-LD output.
package schema

import "strings"

const (
	AvailabilityInStock    = "InStock"
	AvailabilityOutOfStock = "OutOfStock"
	ConditionNew           = "NewCondition"
	CurrencyCLP            = "CLP"
	UnitKilogram           = "KGM"
)

// Product is a schema.org Product.
type Product struct {
	Context     any                `json:"@context,omitempty"`
	Type        string             `json:"@type"`
	ID          string             `json:"@id,omitempty"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	SKU         string             `json:"sku,omitempty"`
	Image       string             `json:"image,omitempty"`
	URL         string             `json:"url,omitempty"`
	Brand       *Brand             `json:"brand,omitempty"`
	Category    string             `json:"category,omitempty"`
	Weight      *QuantitativeValue `json:"weight,omitempty"`
	Offers      *Offer             `json:"offers,omitempty"`
}

func NewProduct(name string) *Product {
	return &Product{Type: "Product", Name: name}
}

type Brand struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

func NewBrand(name string) *Brand {
	return &Brand{Type: "Brand", Name: name}
}

type QuantitativeValue struct {
	Type     string  `json:"@type"`
	Value    float64 `json:"value"`
	UnitCode string  `json:"unitCode"`
}

// NewWeightKg builds a weight in kilograms.
func NewWeightKg(kg float64) *QuantitativeValue {
	return &QuantitativeValue{Type: "QuantitativeValue", Value: kg, UnitCode: UnitKilogram}
}

// Offer prices are whole Chilean pesos.
type Offer struct {
	Type          string `json:"@type"`
	Price         int64  `json:"price"`
	PriceCurrency string `json:"priceCurrency"`
	Availability  string `json:"availability"`
	ItemCondition string `json:"itemCondition,omitempty"`
	URL           string `json:"url,omitempty"`
}

// NewOffer builds a new-condition CLP offer.
func NewOffer(price int64, inStock bool, url string) *Offer {
	availability := AvailabilityOutOfStock
	if inStock {
		availability = AvailabilityInStock
	}
	return &Offer{
		Type:          "Offer",
		Price:         price,
		PriceCurrency: CurrencyCLP,
		Availability:  availability,
		ItemCondition: ConditionNew,
		URL:           url,
	}
}

// ProductURI is the storefront page for a product slug.
func ProductURI(publicURL, slug string) string {
	if slug == "" {
		return ""
	}
	return strings.TrimRight(publicURL, "/") + "/producto/" + slug
}
