package reconciliation

import (
	"errors"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
)

var (
	ErrNotFound = errors.New("purchase order not found")
	// ErrInconsistentLineage: «оригинал» сам ссылается на родителя. Дефект данных, не исправляем.
	ErrInconsistentLineage = errors.New("inconsistent purchase order lineage")
	ErrWriteFailed         = errors.New("receipt write failed")
	ErrOriginalImmutable   = purchaseorders.ErrOriginalImmutable
	ErrUnknownMaterial     = errors.New("material is not planned for purchase order")
	ErrInvalidInput        = errors.New("invalid receipt input")
)
