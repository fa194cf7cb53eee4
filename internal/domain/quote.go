package domain

// Quote is a priced conversion between two assets on the same chain.
// FromAmount and ToAmount are base-unit, integer-valued decimal strings;
// amounts never pass through floating point. A Quote is immutable once
// produced.
type Quote struct {
	From       Asset  `json:"from"`
	To         Asset  `json:"to"`
	FromAmount string `json:"from_amount"`
	ToAmount   string `json:"to_amount"`
	Fee        string `json:"fee,omitempty"`
}
