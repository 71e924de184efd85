package models

// FlightRecord is one entry of the static flight dataset.
type FlightRecord struct {
	Airline       string   `json:"airline"`
	From          string   `json:"from"`
	To            string   `json:"to"`
	DepartureDate string   `json:"departure_date"`
	PriceUSD      float64  `json:"price_usd"`
	Alliance      string   `json:"alliance"`
	Layovers      []string `json:"layovers"`
}

// SearchFilters holds the criteria pulled out of a free-text flight query.
// Zero values mean "not constrained".
type SearchFilters struct {
	From           string   `json:"from,omitempty"`
	To             string   `json:"to,omitempty"`
	DepartureDate  string   `json:"departure_date,omitempty"`
	ReturnDate     string   `json:"return_date,omitempty"`
	Alliance       string   `json:"alliance,omitempty"`
	AvoidOvernight bool     `json:"avoid_overnight,omitempty"`
	MaxPrice       *float64 `json:"max_price,omitempty"`
}

// IsEmpty reports whether no filter would exclude any record.
// ReturnDate is extracted but never filtered on.
func (f SearchFilters) IsEmpty() bool {
	return f.From == "" &&
		f.To == "" &&
		f.DepartureDate == "" &&
		f.Alliance == "" &&
		!f.AvoidOvernight &&
		f.MaxPrice == nil
}
