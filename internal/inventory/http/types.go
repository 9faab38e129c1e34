package http

import "github.com/unitledger/inventory-backend/internal/inventory/service"

type Handler struct {
	inventory *service.InventoryService
}

func New(inventory *service.InventoryService) *Handler {
	return &Handler{inventory: inventory}
}
