package domain

import "time"

// Match pairs a product from list A with an equivalent product from list B whose price differs
type Match struct {
	MatchKey    string   `json:"matchKey"`
	Brand       string   `json:"brand"`
	Flavors     []string `json:"flavors"`
	Volume      Volume   `json:"volume"`
	ProductA    Product  `json:"productA"`
	ProductB    Product  `json:"productB"`
	Difference  float64  `json:"difference"`  // priceA - priceB
	PercentDiff float64  `json:"percentDiff"` // Difference relative to priceB, in percent
}

// ListStats holds aggregate counts for one side of a comparison
type ListStats struct {
	Label    string `json:"label"`
	Rows     int    `json:"rows"`
	Products int    `json:"products"`
	Skipped  int    `json:"skipped"`
	Packages int    `json:"packages"`
	Singles  int    `json:"singles"`
}

// Report is the outcome of one comparison run
type Report struct {
	RunID     string    `json:"runId"`
	CreatedAt time.Time `json:"createdAt"`
	Threshold float64   `json:"threshold"`
	SourceA   ListStats `json:"sourceA"`
	SourceB   ListStats `json:"sourceB"`
	Matches   []Match   `json:"matches"`
}

// ComparisonRequest carries the two raw price lists of a run
type ComparisonRequest struct {
	LabelA string
	LabelB string
	RowsA  []RawRow
	RowsB  []RawRow
}
