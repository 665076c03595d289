// Package memstore: хранилище сверки в памяти для тестов и локальных прогонов.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type StockKey struct {
	WarehouseID  int64
	MaterialCode string
}

type Store struct {
	mu        sync.Mutex
	nextID    int64
	clock     time.Time
	pos       map[int64]purchaseorders.PurchaseOrder
	lines     map[int64][]purchaseorders.Material
	customers map[int64]string
	receipts  []receipts.Receipt
	stock     map[StockKey]decimal.Decimal

	// Ошибки для проверки отката транзакции.
	FailInsert error
	FailStock  error
	FailFlag   error
}

var _ reconciliation.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		clock:     time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		pos:       map[int64]purchaseorders.PurchaseOrder{},
		lines:     map[int64][]purchaseorders.Material{},
		customers: map[int64]string{},
		stock:     map[StockKey]decimal.Decimal{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *Store) AddCustomer(id int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[id] = name
}

// AddOriginal кладёт оригинал с плановыми строками и возвращает его id.
func (s *Store) AddOriginal(poNumber string, customerID int64, lines ...purchaseorders.Material) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	now := s.tick()
	s.pos[id] = purchaseorders.PurchaseOrder{
		ID: id, PONumber: poNumber, CustomerID: customerID, Version: "v1",
		Status: purchaseorders.StatusConfirmed, Active: true, CreatedAt: now, UpdatedAt: now,
	}
	out := make([]purchaseorders.Material, 0, len(lines))
	for i, l := range lines {
		l.ID = s.id()
		l.PurchaseOrderID = id
		if l.LineNo == 0 {
			l.LineNo = i + 1
		}
		out = append(out, l)
	}
	s.lines[id] = out
	return id
}

// AddOperation выпускает следующую рабочую версию оригинала.
func (s *Store) AddOperation(originalID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	orig := s.pos[originalID]
	next := 1
	for _, p := range s.pos {
		if p.OriginalPOID != nil && *p.OriginalPOID == originalID && p.VersionNumber >= next {
			next = p.VersionNumber + 1
		}
	}
	id := s.id()
	now := s.tick()
	parent := originalID
	op := orig
	op.ID = id
	op.OriginalPOID = &parent
	op.VersionNumber = next
	op.Status = purchaseorders.StatusDraft
	op.CreatedAt, op.UpdatedAt = now, now
	s.pos[id] = op
	return id
}

// Put записывает PO как есть, без проверок. Нужно для битых родословных.
func (s *Store) Put(po purchaseorders.PurchaseOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if po.ID > s.nextID {
		s.nextID = po.ID
	}
	if po.CreatedAt.IsZero() {
		po.CreatedAt = s.tick()
	}
	s.pos[po.ID] = po
}

func (s *Store) Deactivate(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pos[id]
	p.Active = false
	s.pos[id] = p
}

// SetFlag выставляет кэш-флаг в обход пересчёта.
func (s *Store) SetFlag(id int64, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pos[id]
	p.IsMaterialFullyReceived = v
	s.pos[id] = p
}

// AddReceipt пишет поступление напрямую, минуя приёмку и пересчёт флага.
func (s *Store) AddReceipt(poID int64, code string, qty decimal.Decimal) receipts.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := receipts.Receipt{RequestID: uuid.New(), PurchaseOrderID: poID, WarehouseID: 1, MaterialCode: code, Quantity: qty}
	s.insertReceipt(&rc)
	return rc
}

func (s *Store) Receipts() []receipts.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.receipts)
}

func (s *Store) Stock(warehouseID int64, code string) decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[StockKey{warehouseID, code}]
}

func (s *Store) PO(id int64) purchaseorders.PurchaseOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos[id]
}

func (s *Store) insertReceipt(rc *receipts.Receipt) {
	rc.ID = s.id()
	rc.CreatedAt = s.tick()
	if rc.ReceivedAt.IsZero() {
		rc.ReceivedAt = rc.CreatedAt
	}
	s.receipts = append(s.receipts, *rc)
}

// --- Reader ---

func (s *Store) GetPurchaseOrder(_ context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPO(id), nil
}

func (s *Store) ListMaterialLines(_ context.Context, originalID int64) ([]purchaseorders.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines[originalID]), nil
}

func (s *Store) ListLineageReceipts(_ context.Context, originalID int64) ([]receipts.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lineageReceipts(originalID), nil
}

func (s *Store) ListSelectionCandidates(_ context.Context, f purchaseorders.SearchFilter) ([]purchaseorders.Listed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidates(f), nil
}

func (s *Store) getPO(id int64) *purchaseorders.PurchaseOrder {
	p, ok := s.pos[id]
	if !ok {
		return nil
	}
	return &p
}

func (s *Store) lineageReceipts(originalID int64) []receipts.Receipt {
	var out []receipts.Receipt
	for _, rc := range s.receipts {
		p, ok := s.pos[rc.PurchaseOrderID]
		if !ok {
			continue
		}
		if p.ID == originalID || (p.OriginalPOID != nil && *p.OriginalPOID == originalID) {
			out = append(out, rc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.Before(out[j].ReceivedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) candidates(f purchaseorders.SearchFilter) []purchaseorders.Listed {
	// как в SQL: термин приходит уже подготовленным
	term := strings.ToLower(f.Term)
	var out []purchaseorders.Listed
	for _, p := range s.pos {
		if p.OriginalPOID == nil || !p.Active || p.IsMaterialFullyReceived {
			continue
		}
		if f.CustomerID != 0 && p.CustomerID != f.CustomerID {
			continue
		}
		name := s.customers[p.CustomerID]
		if term != "" &&
			!strings.Contains(strings.ToLower(p.PONumber), term) &&
			!strings.Contains(strings.ToLower(name), term) {
			continue
		}
		out = append(out, purchaseorders.Listed{PurchaseOrder: p, CustomerName: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// --- транзакция ---

// InTx держит мьютекс всю транзакцию: это и есть блокировка родословной.
// При ошибке состояние откатывается к снимку.
func (s *Store) InTx(ctx context.Context, fn func(tx reconciliation.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := struct {
		nextID   int64
		clock    time.Time
		pos      map[int64]purchaseorders.PurchaseOrder
		receipts []receipts.Receipt
		stock    map[StockKey]decimal.Decimal
	}{s.nextID, s.clock, maps.Clone(s.pos), slices.Clone(s.receipts), maps.Clone(s.stock)}

	if err := fn(&tx{s: s}); err != nil {
		s.nextID, s.clock = snap.nextID, snap.clock
		s.pos, s.receipts, s.stock = snap.pos, snap.receipts, snap.stock
		return err
	}
	return nil
}

type tx struct{ s *Store }

func (t *tx) GetPurchaseOrder(_ context.Context, id int64) (*purchaseorders.PurchaseOrder, error) {
	return t.s.getPO(id), nil
}

func (t *tx) ListMaterialLines(_ context.Context, originalID int64) ([]purchaseorders.Material, error) {
	return slices.Clone(t.s.lines[originalID]), nil
}

func (t *tx) ListLineageReceipts(_ context.Context, originalID int64) ([]receipts.Receipt, error) {
	return t.s.lineageReceipts(originalID), nil
}

func (t *tx) ListSelectionCandidates(_ context.Context, f purchaseorders.SearchFilter) ([]purchaseorders.Listed, error) {
	return t.s.candidates(f), nil
}

func (t *tx) LockLineage(context.Context, int64) error { return nil }

func (t *tx) FindReceiptByRequestID(_ context.Context, requestID uuid.UUID) (*receipts.Receipt, error) {
	for _, rc := range t.s.receipts {
		if rc.RequestID == requestID {
			return &rc, nil
		}
	}
	return nil, nil
}

func (t *tx) InsertReceipt(_ context.Context, rc *receipts.Receipt) error {
	if t.s.FailInsert != nil {
		return t.s.FailInsert
	}
	t.s.insertReceipt(rc)
	return nil
}

func (t *tx) ApplyStock(_ context.Context, rc receipts.Receipt) error {
	if t.s.FailStock != nil {
		return t.s.FailStock
	}
	k := StockKey{rc.WarehouseID, rc.MaterialCode}
	t.s.stock[k] = t.s.stock[k].Add(rc.Quantity)
	return nil
}

func (t *tx) SetLineageFullyReceived(_ context.Context, originalID int64, v bool) error {
	if t.s.FailFlag != nil {
		return t.s.FailFlag
	}
	for id, p := range t.s.pos {
		if p.OriginalPOID != nil && *p.OriginalPOID == originalID {
			p.IsMaterialFullyReceived = v
			t.s.pos[id] = p
		}
	}
	return nil
}
