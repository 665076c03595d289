package reconciliation

import (
	"context"
	"log/slog"
	"time"

	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/receipts"
	"github.com/shopspring/decimal"
)

// ReceiptEvent: поступление с нарастающим итогом по его коду материала.
type ReceiptEvent struct {
	receipts.Receipt
	Planned        decimal.Decimal // план по коду во всей родословной
	ReceivedToDate decimal.Decimal
	Outstanding    decimal.Decimal // Planned - ReceivedToDate, без обрезки
	Unplanned      bool
}

type LineStatus struct {
	LineNo       int
	MaterialCode string
	MaterialName string
	MaterialType string
	Unit         string
	ColorCode    string
	Planned      decimal.Decimal
	Received     decimal.Decimal
	Outstanding  decimal.Decimal // может быть отрицательным
	OverReceived bool
}

// DisplayOutstanding: остаток для показа, не меньше нуля.
func (l LineStatus) DisplayOutstanding() decimal.Decimal {
	if l.Outstanding.IsNegative() {
		return decimal.Zero
	}
	return l.Outstanding
}

type Reconciliation struct {
	PurchaseOrder purchaseorders.PurchaseOrder
	Original      purchaseorders.PurchaseOrder
	Lines         []LineStatus
	// Unplanned: коды, которых нет в плане. На полноту приёмки не влияют.
	Unplanned     []LineStatus
	FullyReceived bool
	// CachedHint: флаг из БД на момент чтения. Для фильтрации, не для решений.
	CachedHint bool
}

// LinesOutstanding: число строк, по которым ещё ждём материал.
func (r Reconciliation) LinesOutstanding() int {
	n := 0
	for _, l := range r.Lines {
		if l.Outstanding.IsPositive() {
			n++
		}
	}
	return n
}

// OverReceived: есть перебор хотя бы по одной строке или приход вне плана.
func (r Reconciliation) OverReceived() bool {
	if len(r.Unplanned) > 0 {
		return true
	}
	for _, l := range r.Lines {
		if l.OverReceived {
			return true
		}
	}
	return false
}

// Engine считает сверку каждый раз заново по строкам оригинала и поступлениям.
type Engine struct {
	r       Reader
	log     *slog.Logger
	metrics Metrics
}

func NewEngine(r Reader, log *slog.Logger, m Metrics) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if m == nil {
		m = NopMetrics{}
	}
	return &Engine{r: r, log: log, metrics: m}
}

func (e *Engine) ReceiptHistory(ctx context.Context, poID int64) ([]ReceiptEvent, error) {
	res, err := Resolve(ctx, e.r, poID)
	if err != nil {
		return nil, err
	}
	rcs, err := e.r.ListLineageReceipts(ctx, res.Original.ID)
	if err != nil {
		return nil, err
	}
	return history(res.Lines, rcs), nil
}

func (e *Engine) ComputeOutstanding(ctx context.Context, poID int64) ([]LineStatus, error) {
	rec, err := e.Reconcile(ctx, poID)
	if err != nil {
		return nil, err
	}
	return rec.Lines, nil
}

func (e *Engine) Reconcile(ctx context.Context, poID int64) (*Reconciliation, error) {
	start := time.Now()
	defer func() { e.metrics.ObserveReconcile(time.Since(start)) }()

	res, err := Resolve(ctx, e.r, poID)
	if err != nil {
		return nil, err
	}
	return reconcileResolved(ctx, e.r, res)
}

func reconcileResolved(ctx context.Context, r Reader, res *Resolution) (*Reconciliation, error) {
	rcs, err := r.ListLineageReceipts(ctx, res.Original.ID)
	if err != nil {
		return nil, err
	}
	lines, unplanned := allocate(res.Lines, rcs)
	return &Reconciliation{
		PurchaseOrder: res.Requested,
		Original:      res.Original,
		Lines:         lines,
		Unplanned:     unplanned,
		FullyReceived: FullyReceived(lines),
		CachedHint:    CachedFullyReceivedHint(res.Requested),
	}, nil
}

// FullyReceived: достоверный признак: по всем строкам остаток <= 0.
// Для PO без строк: true.
func FullyReceived(lines []LineStatus) bool {
	for _, l := range lines {
		if l.Outstanding.IsPositive() {
			return false
		}
	}
	return true
}

// CachedFullyReceivedHint: сохранённый флаг. Может отставать от поступлений.
func CachedFullyReceivedHint(po purchaseorders.PurchaseOrder) bool {
	return po.IsMaterialFullyReceived
}

// allocate раскладывает поступления по плановым строкам.
// Строки с одинаковым кодом заполняются по порядку до плана, излишек уходит в последнюю.
func allocate(planned []purchaseorders.Material, rcs []receipts.Receipt) ([]LineStatus, []LineStatus) {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, rc := range rcs {
		if _, ok := totals[rc.MaterialCode]; !ok {
			order = append(order, rc.MaterialCode)
		}
		totals[rc.MaterialCode] = totals[rc.MaterialCode].Add(rc.Quantity)
	}

	last := make(map[string]int, len(planned))
	for i, m := range planned {
		last[m.MaterialCode] = i
	}

	remaining := make(map[string]decimal.Decimal, len(totals))
	for code, v := range totals {
		remaining[code] = v
	}

	lines := make([]LineStatus, 0, len(planned))
	for i, m := range planned {
		left := remaining[m.MaterialCode]
		got := left
		if last[m.MaterialCode] != i && left.GreaterThan(m.Quantity) {
			got = decimal.Max(m.Quantity, decimal.Zero)
		}
		remaining[m.MaterialCode] = left.Sub(got)

		out := m.Quantity.Sub(got)
		lines = append(lines, LineStatus{
			LineNo:       m.LineNo,
			MaterialCode: m.MaterialCode,
			MaterialName: m.MaterialName,
			MaterialType: m.MaterialType,
			Unit:         m.Unit,
			ColorCode:    m.ColorCode,
			Planned:      m.Quantity,
			Received:     got,
			Outstanding:  out,
			OverReceived: out.IsNegative(),
		})
	}

	var unplanned []LineStatus
	for _, code := range order {
		if _, ok := last[code]; ok {
			continue
		}
		got := totals[code]
		unplanned = append(unplanned, LineStatus{
			MaterialCode: code,
			Planned:      decimal.Zero,
			Received:     got,
			Outstanding:  got.Neg(),
			OverReceived: true,
		})
	}
	return lines, unplanned
}

func history(planned []purchaseorders.Material, rcs []receipts.Receipt) []ReceiptEvent {
	plan := make(map[string]decimal.Decimal, len(planned))
	for _, m := range planned {
		plan[m.MaterialCode] = plan[m.MaterialCode].Add(m.Quantity)
	}

	running := make(map[string]decimal.Decimal)
	out := make([]ReceiptEvent, 0, len(rcs))
	for _, rc := range rcs {
		total := running[rc.MaterialCode].Add(rc.Quantity)
		running[rc.MaterialCode] = total
		p, ok := plan[rc.MaterialCode]
		out = append(out, ReceiptEvent{
			Receipt:        rc,
			Planned:        p,
			ReceivedToDate: total,
			Outstanding:    p.Sub(total),
			Unplanned:      !ok,
		})
	}
	return out
}

// materialStatus сводит строки одного кода в одну позицию.
func materialStatus(lines []LineStatus, unplanned []LineStatus, code string) LineStatus {
	st := LineStatus{MaterialCode: code}
	found := false
	for _, l := range lines {
		if l.MaterialCode != code {
			continue
		}
		if !found {
			st = l
			found = true
			continue
		}
		st.Planned = st.Planned.Add(l.Planned)
		st.Received = st.Received.Add(l.Received)
		st.Outstanding = st.Outstanding.Add(l.Outstanding)
	}
	if !found {
		for _, u := range unplanned {
			if u.MaterialCode == code {
				return u
			}
		}
	}
	st.OverReceived = st.Outstanding.IsNegative()
	return st
}
