package models

// All lists every table model in dependency order. Used by AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&Category{},
		&Product{},
		&ProductVariant{},
		&StockMovement{},
		&Lead{},
		&LeadNote{},
		&CallNote{},
		&Order{},
		&OrderItem{},
		&OrderHistory{},
		&Courier{},
		&Bordereau{},
		&BordereauHistory{},
		&Shipment{},
		&ShipmentTracking{},
		&Blacklist{},
		&Transaction{},
		&DailyAdSpend{},
		&SystemCostSettings{},
	}
}
