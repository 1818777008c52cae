package dto

type CreateWarehouseRequest struct {
	Name    string  `json:"name"    validate:"required,min=2,max=120"`
	Address *string `json:"address"`
}

type UpdateWarehouseRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=120"`
	Address *string `json:"address"`
}

type WarehouseResponse struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Address *string `json:"address"`
}
