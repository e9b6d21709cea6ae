package models

// OrderStatusNew is assigned to every freshly submitted order
const OrderStatusNew = "Новий"

// DefaultDelivery is used when the client omits the delivery method
const DefaultDelivery = "Нова пошта"

// Order represents a checkout submission
type Order struct {
	BaseModel
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Delivery     string         `json:"delivery"`
	Payment      *string        `json:"payment"`
	Total        float64        `gorm:"type:numeric(12,2);default:0" json:"total"`
	Items        []OrderItem    `gorm:"serializer:json;type:jsonb" json:"items"`
	UTM          map[string]any `gorm:"column:utm;serializer:json;type:jsonb" json:"utm"`
	DeviceID     *string        `json:"device_id"`
	IP           string         `gorm:"column:ip" json:"ip"`
	Status       string         `gorm:"default:'Новий'" json:"status"`
	AdminComment *string        `gorm:"type:text" json:"admin_comment"`
}

// OrderItem is a cart line as sent by the storefront
type OrderItem struct {
	ID           uint    `json:"id,omitempty"`
	Number       string  `json:"number,omitempty"`
	OEM          string  `json:"oem,omitempty"`
	Manufacturer string  `json:"manufacturer,omitempty"`
	Availability string  `json:"availability,omitempty"`
	Condition    string  `json:"condition,omitempty"`
	Type         string  `json:"type,omitempty"`
	Qty          int     `json:"qty"`
	Price        float64 `json:"price"`
}

// OrderRequest is the public checkout payload
type OrderRequest struct {
	Items        []OrderItem    `json:"items"`
	Name         string         `json:"name" validate:"max=200"`
	Phone        string         `json:"phone" validate:"max=50"`
	Delivery     string         `json:"delivery" validate:"max=500"`
	Payment      *string        `json:"payment"`
	Total        float64        `json:"total"`
	UTM          map[string]any `json:"utm"`
	Company      string         `json:"company"`
	CaptchaToken string         `json:"captchaToken"`
}

// UpdateOrderRequest carries the admin-editable order fields
type UpdateOrderRequest struct {
	Status       *string `json:"status"`
	AdminComment *string `json:"admin_comment"`
	Payment      *string `json:"payment"`
}
