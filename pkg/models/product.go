package models

// Condition values
const (
	ConditionNew         = "New"
	ConditionRefurbished = "Refurbished"
)

// Part type values
const (
	TypeInjector = "Injector"
	TypePump     = "Pump"
	TypeValve    = "Valve"
)

// Availability values
const (
	AvailabilityInStock = "In stock"
	AvailabilityOnOrder = "On order"
)

var (
	Conditions     = []string{ConditionNew, ConditionRefurbished}
	PartTypes      = []string{TypeInjector, TypePump, TypeValve}
	Availabilities = []string{AvailabilityInStock, AvailabilityOnOrder}
)

// Product is one sellable fuel-injection part
type Product struct {
	BaseModel
	Number       string   `gorm:"index" json:"number"`
	OEM          string   `gorm:"column:oem;index" json:"oem"`
	Cross        []string `gorm:"serializer:json;type:jsonb" json:"cross"`
	Manufacturer string   `json:"manufacturer"`
	Condition    string   `json:"condition"`
	Type         string   `json:"type"`
	Availability string   `json:"availability"`
	Qty          int      `gorm:"not null;default:0" json:"qty"`
	Price        float64  `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Engine       *float64 `json:"engine"`
	Images       []string `gorm:"serializer:json;type:jsonb" json:"images"`
	SKU          string   `gorm:"column:sku;index" json:"sku,omitempty"`
}

// ProductColumns are the catalog columns written by imports and admin edits
var ProductColumns = []string{
	"number", "oem", "cross", "manufacturer", "condition", "type",
	"availability", "qty", "price", "engine", "images",
}

// ProductFilter mirrors the storefront catalog filters
type ProductFilter struct {
	Query        string
	Number       string
	OEM          string
	Cross        string
	Brands       []string
	Conditions   []string
	Types        []string
	Availability []string
	Engines      []string
}

// ProductFacets lists the distinct values the storefront offers as filters
type ProductFacets struct {
	Brands  []string  `json:"brands"`
	Engines []float64 `json:"engines"`
}

// ProductInput is the admin product payload. Nil fields are left untouched.
type ProductInput struct {
	ID           *uint     `json:"id"`
	Number       *string   `json:"number" validate:"omitempty,max=100"`
	OEM          *string   `json:"oem" validate:"omitempty,max=100"`
	Cross        *[]string `json:"cross"`
	Manufacturer *string   `json:"manufacturer" validate:"omitempty,max=100"`
	Condition    *string   `json:"condition"`
	Type         *string   `json:"type"`
	Availability *string   `json:"availability"`
	Qty          *int      `json:"qty"`
	Price        *float64  `json:"price"`
	Engine       *float64  `json:"engine"`
	Images       *[]string `json:"images"`
}

// ApplyTo copies the present fields onto p and returns their column names
func (in *ProductInput) ApplyTo(p *Product) []string {
	var columns []string
	setString := func(column string, src *string, dst *string) {
		if src != nil {
			*dst = *src
			columns = append(columns, column)
		}
	}
	setList := func(column string, src *[]string, dst *[]string) {
		if src != nil {
			*dst = *src
			if *dst == nil {
				*dst = []string{}
			}
			columns = append(columns, column)
		}
	}

	setString("number", in.Number, &p.Number)
	setString("oem", in.OEM, &p.OEM)
	setList("cross", in.Cross, &p.Cross)
	setString("manufacturer", in.Manufacturer, &p.Manufacturer)
	setString("condition", in.Condition, &p.Condition)
	setString("type", in.Type, &p.Type)
	setString("availability", in.Availability, &p.Availability)
	if in.Qty != nil {
		p.Qty = *in.Qty
		columns = append(columns, "qty")
	}
	if in.Price != nil {
		p.Price = *in.Price
		columns = append(columns, "price")
	}
	if in.Engine != nil {
		p.Engine = in.Engine
		columns = append(columns, "engine")
	}
	setList("images", in.Images, &p.Images)

	return columns
}

// Candidate returns the product as a reconciler candidate
func (p *Product) Candidate() CandidateItem {
	return CandidateItem{
		Number:       p.Number,
		OEM:          p.OEM,
		Cross:        p.Cross,
		Manufacturer: p.Manufacturer,
		Condition:    p.Condition,
		Type:         p.Type,
		Availability: p.Availability,
		Qty:          p.Qty,
		Price:        p.Price,
		Engine:       p.Engine,
		Images:       p.Images,
	}
}
