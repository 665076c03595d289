package purchaseorders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOriginalImmutable: оригинальный (импортированный) PO не редактируется.
	ErrOriginalImmutable = errors.New("original purchase order is immutable")
	ErrNotOriginal       = errors.New("purchase order is not an original")
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusConfirmed Status = "confirmed"
	StatusClosed    Status = "closed"
)

// Lineage: вид PO: Original либо Operation{OriginalID}.
// Глубина родословной ровно один шаг, поэтому Operation хранит только id оригинала.
type Lineage interface{ lineage() }

type Original struct{}

type Operation struct{ OriginalID int64 }

func (Original) lineage()  {}
func (Operation) lineage() {}

type PurchaseOrder struct {
	ID             int64
	PONumber       string
	CustomerID     int64
	Version        string // текстовая метка версии из импорта
	ProcessingType string
	PODate         time.Time
	Status         Status
	TotalAmount    decimal.Decimal

	OriginalPOID  *int64
	VersionNumber int

	// Кэш, пересчитывается при каждой приёмке. Годится только как фильтр,
	// за достоверным значением: в reconciliation.
	IsMaterialFullyReceived bool

	Active    bool
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p PurchaseOrder) Lineage() Lineage {
	if p.OriginalPOID == nil {
		return Original{}
	}
	return Operation{OriginalID: *p.OriginalPOID}
}

func (p PurchaseOrder) IsOriginal() bool { return p.OriginalPOID == nil }

// Material: плановая строка потребности в материале. Всегда принадлежит оригиналу.
type Material struct {
	ID              int64
	PurchaseOrderID int64
	LineNo          int
	MaterialCode    string
	MaterialName    string
	MaterialType    string
	Quantity        decimal.Decimal
	Unit            string
	ColorCode       string
	Notes           string
}

// Listed: PO с именем клиента для списков и поиска.
type Listed struct {
	PurchaseOrder
	CustomerName string
}

type SearchFilter struct {
	Term       string // подстрока номера PO или имени клиента, без учёта регистра
	CustomerID int64  // 0: любой клиент
}

// OperationUpdate: редактируемые поля рабочего PO; nil означает «не менять».
type OperationUpdate struct {
	Status      *Status
	Version     *string
	TotalAmount *decimal.Decimal
}
