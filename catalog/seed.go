package catalog

import "github.com/shopspring/decimal"

// SeedProducts is the built-in Inframex demo catalog, used when the service
// runs without a database.
func SeedProducts() []Product {
	return []Product{
		{
			ID:          1,
			SKU:         "TUBO-50-PVC",
			Name:        "Tubo PVC 50mm",
			Description: "Tubo de PVC para drenaje de 50mm",
			Price:       decimal.NewFromFloat(45.50),
			Cost:        decimal.NewFromFloat(32.00),
			Stock:       150,
			MinStock:    20,
			Unit:        "pieza",
			Barcode:     "7501234567890",
			Category:    "Tubería",
			IsActive:    true,
		},
		{
			ID:          2,
			SKU:         "CEMEX-50KG",
			Name:        "Cemento Cemex 50kg",
			Description: "Cemento gris para construcción",
			Price:       decimal.NewFromFloat(125.00),
			Cost:        decimal.NewFromFloat(95.00),
			Stock:       80,
			MinStock:    10,
			Unit:        "saco",
			Barcode:     "7501234567891",
			Category:    "Cementos",
			IsActive:    true,
		},
		{
			ID:          3,
			SKU:         "VAR-3-8",
			Name:        "Varilla corrugada 3/8\"",
			Description: "Varilla de acero para construcción 3/8\"",
			Price:       decimal.NewFromFloat(89.00),
			Cost:        decimal.NewFromFloat(65.00),
			Stock:       200,
			MinStock:    30,
			Unit:        "pieza",
			Barcode:     "7501234567892",
			Category:    "Acero",
			IsActive:    true,
		},
		{
			ID:          4,
			SKU:         "ARENA-M3",
			Name:        "Arena para construcción",
			Description: "Arena lavada para concreto",
			Price:       decimal.NewFromFloat(450.00),
			Cost:        decimal.NewFromFloat(320.00),
			Stock:       15,
			MinStock:    5,
			Unit:        "m3",
			Barcode:     "7501234567893",
			Category:    "Materiales Básicos",
			IsActive:    true,
		},
		{
			ID:          5,
			SKU:         "GRAVA-M3",
			Name:        "Grava triturada 3/4\"",
			Description: "Grava para concreto y filtros",
			Price:       decimal.NewFromFloat(520.00),
			Cost:        decimal.NewFromFloat(380.00),
			Stock:       12,
			MinStock:    5,
			Unit:        "m3",
			Barcode:     "7501234567894",
			Category:    "Materiales Básicos",
			IsActive:    true,
		},
	}
}
