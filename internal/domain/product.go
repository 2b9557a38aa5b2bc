package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Product is a catalog document as stored in the search index.
type Product struct {
	ID          DocumentID `json:"id"`
	Brand       string     `json:"brand"`
	Name        string     `json:"name"`
	Price       Price      `json:"price"`
	PriceSign   string     `json:"price_sign,omitempty"`
	Currency    string     `json:"currency,omitempty"`
	ImageLink   string     `json:"image_link,omitempty"`
	Description string     `json:"description,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	Category    string     `json:"category"`
	ProductType string     `json:"product_type,omitempty"`
	TagList     []string   `json:"tag_list,omitempty"`
}

// DocumentID is a document identifier. Catalog exports use both JSON strings
// and JSON numbers for ids; both decode to the same string form.
type DocumentID string

// UnmarshalJSON accepts a JSON string or number.
func (id *DocumentID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = DocumentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("document id: %w", err)
	}
	*id = DocumentID(n.String())
	return nil
}

// Price is a product price. Catalog exports frequently carry prices as
// numeric strings ("5.0"); those decode to the same value as the number.
type Price float64

// UnmarshalJSON accepts a JSON number, a numeric string, an empty string or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*p = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("price %q: %w", s, err)
		}
		*p = Price(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = Price(f)
	return nil
}
