package models

// InventoryMovement records a stock change applied to a product
type InventoryMovement struct {
	BaseModel
	ProductID uint   `gorm:"index;not null" json:"product_id"`
	Delta     int    `json:"delta"`
	QtyBefore int    `json:"qty_before"`
	QtyAfter  int    `json:"qty_after"`
	Reason    string `json:"reason"`
	Ref       string `json:"ref"`
	Operator  string `json:"operator"`
}

// InventorySyncItem is one spreadsheet line pushed by the stock sync job
type InventorySyncItem struct {
	SKU string   `json:"sku" validate:"max=100"`
	Qty *float64 `json:"qty"`
}

// InventorySyncRequest is the stock sync payload
type InventorySyncRequest struct {
	Items []InventorySyncItem `json:"items" validate:"dive"`
}

// InventorySyncResult summarizes a stock sync run
type InventorySyncResult struct {
	OK       bool     `json:"ok"`
	Updated  int      `json:"updated"`
	NotFound []string `json:"notFound"`
}
