package models

// CartLine is one line of the cart the browser keeps in local storage.
// Quantity is a float so fractional or garbage input can be detected and dropped.
type CartLine struct {
	ProductID string  `json:"product_id"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
}

// ValidatedLine is a cart line refreshed against the live catalog.
type ValidatedLine struct {
	ProductID   string  `json:"product_id"`
	Name        string  `json:"name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Discount    float64 `json:"discount"`
	Stock       int     `json:"stock"`
	GSTIncluded bool    `json:"gst_included"`
	LineTotal   float64 `json:"line_total"`
}

// CartNotice explains why a line was removed or adjusted.
type CartNotice struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Reason    string `json:"reason"`
}

// ValidatedCart is the result of checking a client cart against the catalog.
type ValidatedCart struct {
	Lines    []ValidatedLine `json:"lines"`
	Removed  []CartNotice    `json:"removed"`
	Changed  []CartNotice    `json:"changed"`
	Subtotal float64         `json:"subtotal"`
}
