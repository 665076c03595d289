package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ReceiptInput struct {
	PurchaseOrderID int64  `validate:"required,gt=0"`
	WarehouseID     int64  `validate:"required,gt=0"`
	MaterialCode    string `validate:"required,max=64"`
	Quantity        decimal.Decimal
	ReceivedBy      int64  `validate:"gte=0"`
	Note            string `validate:"max=500"`
	RequestID       uuid.UUID // пустой: сгенерируем
	ReceivedAt      time.Time // пустое: текущее время
}

type PostResult struct {
	Receipt receipts.Receipt
	// Material: сводно по коду материала после поступления.
	Material      LineStatus
	FullyReceived bool
	OverReceived  bool
	// Duplicate: поступление с таким request_id уже было, новое не записано.
	Duplicate bool
}

// Receiver проводит поступления. Всё под одной транзакцией с блокировкой оригинала.
type Receiver struct {
	store    Store
	log      *slog.Logger
	metrics  Metrics
	validate *validator.Validate
	now      func() time.Time
}

func NewReceiver(store Store, log *slog.Logger, m Metrics) *Receiver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if m == nil {
		m = NopMetrics{}
	}
	return &Receiver{
		store:    store,
		log:      log,
		metrics:  m,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (r *Receiver) normalize(in *ReceiptInput) error {
	in.MaterialCode = strings.TrimSpace(in.MaterialCode)
	in.Note = strings.TrimSpace(in.Note)
	if in.RequestID == uuid.Nil {
		in.RequestID = uuid.New()
	}
	if in.ReceivedAt.IsZero() {
		in.ReceivedAt = r.now()
	}
	if err := r.validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !in.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be > 0, got %s", ErrInvalidInput, in.Quantity)
	}
	return nil
}

func (r *Receiver) PostReceipt(ctx context.Context, in ReceiptInput) (*PostResult, error) {
	if err := r.normalize(&in); err != nil {
		return nil, err
	}

	res, err := Resolve(ctx, r.store, in.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if res.Requested.IsOriginal() {
		return nil, fmt.Errorf("post receipt to purchase order %d: %w", in.PurchaseOrderID, ErrOriginalImmutable)
	}
	planned := false
	for _, l := range res.Lines {
		if l.MaterialCode == in.MaterialCode {
			planned = true
			break
		}
	}
	if !planned {
		return nil, fmt.Errorf("material %q in purchase order %d: %w", in.MaterialCode, in.PurchaseOrderID, ErrUnknownMaterial)
	}

	var out PostResult
	err = r.store.InTx(ctx, func(tx Tx) error {
		if err := tx.LockLineage(ctx, res.Original.ID); err != nil {
			return err
		}

		dup, err := tx.FindReceiptByRequestID(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if dup != nil {
			if dup.PurchaseOrderID != in.PurchaseOrderID || dup.MaterialCode != in.MaterialCode {
				return fmt.Errorf("%w: request id %s already used for another receipt", ErrInvalidInput, in.RequestID)
			}
			out.Receipt = *dup
			out.Duplicate = true
		} else {
			rc := receipts.Receipt{
				RequestID:       in.RequestID,
				PurchaseOrderID: in.PurchaseOrderID,
				WarehouseID:     in.WarehouseID,
				MaterialCode:    in.MaterialCode,
				Quantity:        in.Quantity,
				ReceivedAt:      in.ReceivedAt,
				ReceivedBy:      in.ReceivedBy,
				Note:            in.Note,
			}
			if err := tx.InsertReceipt(ctx, &rc); err != nil {
				return fmt.Errorf("insert receipt: %w", err)
			}
			if err := tx.ApplyStock(ctx, rc); err != nil {
				return fmt.Errorf("apply stock: %w", err)
			}
			out.Receipt = rc
		}

		rec, err := reconcileResolved(ctx, tx, res)
		if err != nil {
			return fmt.Errorf("recompute: %w", err)
		}
		if !out.Duplicate {
			if err := tx.SetLineageFullyReceived(ctx, res.Original.ID, rec.FullyReceived); err != nil {
				return fmt.Errorf("update fully received flag: %w", err)
			}
		}
		out.Material = materialStatus(rec.Lines, rec.Unplanned, in.MaterialCode)
		out.FullyReceived = rec.FullyReceived
		out.OverReceived = out.Material.OverReceived
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		r.metrics.WriteFailed()
		r.log.Error("post receipt failed", "po_id", in.PurchaseOrderID, "request_id", in.RequestID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	if out.Duplicate {
		r.metrics.DuplicateReceipt()
		r.log.Info("duplicate receipt ignored", "po_id", in.PurchaseOrderID, "request_id", in.RequestID, "receipt_id", out.Receipt.ID)
		return &out, nil
	}

	r.metrics.ReceiptPosted()
	r.log.Info("receipt posted",
		"po_id", in.PurchaseOrderID, "original_id", res.Original.ID,
		"receipt_id", out.Receipt.ID, "material", in.MaterialCode, "qty", in.Quantity.String(),
		"fully_received", out.FullyReceived)
	if out.OverReceived {
		r.metrics.OverReceipt()
		r.log.Warn("over-receipt",
			"po_id", in.PurchaseOrderID, "material", in.MaterialCode,
			"planned", out.Material.Planned.String(), "received", out.Material.Received.String())
	}
	return &out, nil
}
