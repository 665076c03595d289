package bot

import (
	"fmt"
	"strings"

	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
)

const historyLimit = 20

func renderCard(rec *reconciliation.Reconciliation) string {
	var sb strings.Builder
	po := rec.PurchaseOrder
	sb.WriteString(fmt.Sprintf("PO %s, версия %d", po.PONumber, po.VersionNumber))
	if po.Version != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", po.Version))
	}
	sb.WriteString("\n")
	if rec.FullyReceived {
		sb.WriteString("✅ Материалы получены полностью\n")
	}
	sb.WriteString("\n")

	for _, l := range rec.Lines {
		mark := "⏳"
		switch {
		case l.OverReceived:
			mark = "⚠️"
		case !l.Outstanding.IsPositive():
			mark = "✅"
		}
		name := l.MaterialName
		if name == "" {
			name = l.MaterialCode
		}
		sb.WriteString(fmt.Sprintf("%s %d. %s [%s]\n   план %s, получено %s, осталось %s %s\n",
			mark, l.LineNo, name, l.MaterialCode,
			l.Planned, l.Received, l.DisplayOutstanding(), l.Unit))
		if l.OverReceived {
			sb.WriteString(fmt.Sprintf("   перебор %s %s\n", l.Outstanding.Neg(), l.Unit))
		}
	}
	for _, u := range rec.Unplanned {
		sb.WriteString(fmt.Sprintf("⚠️ вне плана [%s]: получено %s\n", u.MaterialCode, u.Received))
	}
	if len(rec.Lines) == 0 {
		sb.WriteString("В PO нет плановых строк.\n")
	}
	return sb.String()
}

func renderHistory(events []reconciliation.ReceiptEvent) string {
	if len(events) == 0 {
		return "Поступлений по PO ещё не было."
	}
	var sb strings.Builder
	start := 0
	if len(events) > historyLimit {
		start = len(events) - historyLimit
		sb.WriteString(fmt.Sprintf("Последние %d из %d поступлений:\n", historyLimit, len(events)))
	} else {
		sb.WriteString("История поступлений:\n")
	}
	for _, ev := range events[start:] {
		sb.WriteString(fmt.Sprintf("%s  [%s] +%s → %s из %s",
			ev.ReceivedAt.Format("02.01 15:04"), ev.MaterialCode,
			ev.Quantity, ev.ReceivedToDate, ev.Planned))
		if ev.Outstanding.IsNegative() {
			sb.WriteString(" ⚠️")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderPosted(res *reconciliation.PostResult) string {
	var sb strings.Builder
	if res.Duplicate {
		sb.WriteString("Эта приёмка уже была записана.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Принято: [%s] %s.\n", res.Receipt.MaterialCode, res.Receipt.Quantity))
	}
	m := res.Material
	sb.WriteString(fmt.Sprintf("Всего получено %s из %s, осталось %s.", m.Received, m.Planned, m.DisplayOutstanding()))
	if res.OverReceived {
		sb.WriteString(fmt.Sprintf("\n⚠️ Перебор по материалу: %s сверх плана.", m.Outstanding.Neg()))
	}
	if res.FullyReceived {
		sb.WriteString("\n✅ По PO получены все материалы.")
	}
	return sb.String()
}
