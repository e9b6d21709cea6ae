package models

// Import modes
const (
	ImportModeUpsert  = "upsert"
	ImportModeReplace = "replace"
)

// ImportRow is a raw, unvalidated record parsed from CSV, JSON or pasted text
type ImportRow map[string]any

// CandidateItem is an ImportRow shaped into the catalog field set
type CandidateItem struct {
	ID           *uint
	Number       string
	OEM          string
	Cross        []string
	Manufacturer string
	Condition    string
	Type         string
	Availability string
	Qty          int
	Price        float64
	Engine       *float64
	Images       []string
}

// ToProduct copies the candidate fields into a new product (without id)
func (c CandidateItem) ToProduct() *Product {
	return &Product{
		Number:       c.Number,
		OEM:          c.OEM,
		Cross:        c.Cross,
		Manufacturer: c.Manufacturer,
		Condition:    c.Condition,
		Type:         c.Type,
		Availability: c.Availability,
		Qty:          c.Qty,
		Price:        c.Price,
		Engine:       c.Engine,
		Images:       c.Images,
	}
}

// ImportRowError attributes an error to a 1-based row number
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportReport summarizes one reconciliation run
type ImportReport struct {
	OK       bool             `json:"ok"`
	Mode     string           `json:"mode"`
	DryRun   bool             `json:"dryRun"`
	Updated  int              `json:"updated"`
	Created  int              `json:"created"`
	Replaced int              `json:"replaced"`
	Errors   []ImportRowError `json:"errors"`
	Total    int              `json:"total"`
}

// ExportRow is the flat catalog shape shared by export and import
type ExportRow struct {
	ID           uint     `json:"id"`
	Number       string   `json:"number"`
	OEM          string   `json:"oem"`
	Cross        string   `json:"cross"`
	Manufacturer string   `json:"manufacturer"`
	Condition    string   `json:"condition"`
	Type         string   `json:"type"`
	Engine       *float64 `json:"engine"`
	Availability string   `json:"availability"`
	Qty          int      `json:"qty"`
	Price        float64  `json:"price"`
	Images       string   `json:"images"`
}
