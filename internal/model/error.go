package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation               = errors.New("validation error")                      // 400
	ErrInvalidQuantity          = errors.New("quantity must be positive")             // 400
	ErrUnknownTenant            = errors.New("tenant id is required")                 // 400
	ErrPartNotFound             = errors.New("part not found")                        // 404
	ErrAllocationNotFound       = errors.New("allocation not found")                  // 404
	ErrVehicleNotFound          = errors.New("vehicle not found")                     // 404
	ErrAlreadyInProgress        = errors.New("sync already in progress")              // 409
	ErrAllocationConsumed       = errors.New("allocation already consumed")           // 409
	ErrWorkOrderCompleted       = errors.New("work order already completed")          // 409
	ErrAllocationsChanged       = errors.New("allocations changed during completion") // 409
	ErrInsufficientStock        = errors.New("insufficient stock")                    // 422
	ErrRemoteUnavailable        = errors.New("remote unavailable")                    // 502
	ErrTransientSyncReadFailure = errors.New("sync status read failed")               // 503
)

type StockShortfall struct {
	PartID    string
	Requested int64
	Available int64
}

// InsufficientStockError names every part whose demand exceeds stock.
type InsufficientStockError struct {
	Shortfalls []StockShortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.PartID, s.Requested, s.Available))
	}
	return ErrInsufficientStock.Error() + ": " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func (e *InsufficientStockError) PartIDs() []string {
	ids := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		ids = append(ids, s.PartID)
	}
	return ids
}
