package bot

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/purchaseorders"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/users"
	"github.com/Spok95/po-tracker/internal/report"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// carry переносит в новый payload то, что живёт весь сценарий приёмки.
func (b *Bot) carry(ctx context.Context, chatID int64, next dialog.Payload) dialog.Payload {
	st, err := b.states.Get(ctx, chatID)
	if err != nil || st == nil {
		return next
	}
	for _, k := range []string{"term", "po_id", "line_no", "code", "wh_id"} {
		if _, set := next[k]; set {
			continue
		}
		if v, ok := st.Payload[k]; ok {
			next[k] = v
		}
	}
	return next
}

func (b *Bot) askSearch(ctx context.Context, chatID int64, editMsgID *int) {
	text := "Введите номер PO или название клиента.\nОтправьте «-», чтобы показать все PO в работе."
	mid := b.reply(chatID, editMsgID, text, navKeyboard(false, true))
	b.saveLastStep(ctx, chatID, dialog.StateRcvSearch, dialog.Payload{}, mid)
}

func (b *Bot) showSearchResults(ctx context.Context, chatID int64, editMsgID *int, term string) {
	list, err := b.tracker.SearchSelectable(ctx, purchaseorders.SearchFilter{Term: term})
	if err != nil {
		b.log.Error("search selectable failed", "term", term, "err", err)
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}
	if len(list) == 0 {
		text := "PO в работе не найдены. Введите другой номер или клиента."
		mid := b.reply(chatID, editMsgID, text, navKeyboard(false, true))
		b.saveLastStep(ctx, chatID, dialog.StateRcvSearch, dialog.Payload{}, mid)
		return
	}

	const maxButtons = 30
	text := fmt.Sprintf("Найдено PO: %d. Выберите:", len(list))
	if len(list) > maxButtons {
		text = fmt.Sprintf("Найдено PO: %d, показаны первые %d. Уточните поиск или выберите:", len(list), maxButtons)
		list = list[:maxButtons]
	}
	mid := b.reply(chatID, editMsgID, text, poListKeyboard(list))
	b.saveLastStep(ctx, chatID, dialog.StateRcvPickPO, dialog.Payload{"term": term}, mid)
}

func (b *Bot) showCard(ctx context.Context, chatID int64, editMsgID *int, poID int64) {
	rec, err := b.tracker.Reconcile(ctx, poID)
	if err != nil {
		b.log.Warn("reconcile failed", "po_id", poID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}
	mid := b.reply(chatID, editMsgID, renderCard(rec), cardKeyboard(rec))
	payload := b.carry(ctx, chatID, dialog.Payload{"po_id": float64(poID)})
	delete(payload, "wh_id")
	delete(payload, "request_id")
	b.saveLastStep(ctx, chatID, dialog.StateRcvCard, payload, mid)
}

func (b *Bot) onLinePicked(ctx context.Context, chatID int64, msgID int, poID int64, lineNo int) {
	lines, err := b.tracker.ResolveMaterialLines(ctx, poID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}
	var line *purchaseorders.Material
	for i := range lines {
		if lines[i].LineNo == lineNo {
			line = &lines[i]
			break
		}
	}
	if line == nil {
		b.send(tgbotapi.NewMessage(chatID, "Строка PO не найдена, откройте карточку заново."))
		return
	}

	payload := b.carry(ctx, chatID, dialog.Payload{
		"po_id":   float64(poID),
		"line_no": float64(lineNo),
		"code":    line.MaterialCode,
	})

	if b.opts.DefaultWarehouseID > 0 {
		b.askQty(ctx, chatID, &msgID, payload, b.opts.DefaultWarehouseID)
		return
	}

	ws, err := b.catalog.ListWarehouses(ctx, true)
	if err != nil {
		b.log.Error("list warehouses failed", "err", err)
		b.editTextAndClear(chatID, msgID, "Ошибка загрузки складов")
		return
	}
	if len(ws) == 0 {
		b.editTextAndClear(chatID, msgID, "Нет активных складов. Обратитесь к администратору.")
		return
	}
	text := fmt.Sprintf("Материал [%s] %s.\nНа какой склад принимаем?", line.MaterialCode, line.MaterialName)
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, warehouseKeyboard(ws)))
	b.saveLastStep(ctx, chatID, dialog.StateRcvPickWh, payload, msgID)
}

func (b *Bot) askQty(ctx context.Context, chatID int64, editMsgID *int, payload dialog.Payload, whID int64) {
	code, _ := dialog.GetString(payload, "code")
	payload["wh_id"] = float64(whID)
	// ключ идемпотентности на этот ввод: повтор того же ответа не задвоит приход
	payload["request_id"] = uuid.NewString()

	text := fmt.Sprintf("Введите количество по материалу [%s] (например 12,5):", code)
	mid := b.reply(chatID, editMsgID, text, navKeyboard(true, true))
	b.saveLastStep(ctx, chatID, dialog.StateRcvQty, payload, mid)
}

func (b *Bot) onQtyEntered(ctx context.Context, chatID int64, u *users.User, p dialog.Payload, text string) {
	qty, err := parseQty(text)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Некорректное количество: "+err.Error()+". Попробуйте ещё раз."))
		return
	}
	poID, ok1 := dialog.GetInt64(p, "po_id")
	whID, ok2 := dialog.GetInt64(p, "wh_id")
	code, ok3 := dialog.GetString(p, "code")
	if !ok1 || !ok2 || !ok3 {
		_ = b.states.Reset(ctx, chatID)
		b.send(tgbotapi.NewMessage(chatID, "Сценарий сбился, начните заново: «"+btnReceive+"»."))
		return
	}
	var rid uuid.UUID
	if s, ok := dialog.GetString(p, "request_id"); ok {
		rid, _ = uuid.Parse(s)
	}

	res, err := b.tracker.PostReceipt(ctx, reconciliation.ReceiptInput{
		PurchaseOrderID: poID,
		WarehouseID:     whID,
		MaterialCode:    code,
		Quantity:        qty,
		ReceivedBy:      u.ID,
		Note:            "telegram: " + u.DisplayName(),
		RequestID:       rid,
	})
	if err != nil {
		b.log.Warn("post receipt failed", "po_id", poID, "code", code, "err", err)
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}

	b.clearPrevStep(ctx, chatID)
	b.send(tgbotapi.NewMessage(chatID, renderPosted(res)))
	b.showCard(ctx, chatID, nil, poID)
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64, poID int64) {
	hist, err := b.tracker.ReceiptHistory(ctx, poID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}
	b.send(tgbotapi.NewMessage(chatID, renderHistory(hist)))
}

func (b *Bot) sendReport(ctx context.Context, chatID int64, poID int64) {
	rec, err := b.tracker.Reconcile(ctx, poID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}
	hist, err := b.tracker.ReceiptHistory(ctx, poID)
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, userError(err)))
		return
	}

	buf := &bytes.Buffer{}
	if err := report.WriteReconciliation(buf, rec, hist); err != nil {
		b.log.Error("build report failed", "po_id", poID, "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка формирования файла"))
		return
	}

	fileName := fmt.Sprintf("po_%s_v%d_%s.xlsx",
		rec.PurchaseOrder.PONumber, rec.PurchaseOrder.VersionNumber,
		time.Now().Format("20060102_150405"),
	)
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  fileName,
		Bytes: buf.Bytes(),
	})
	doc.Caption = fmt.Sprintf("Сверка материалов по PO %s", rec.PurchaseOrder.PONumber)
	b.send(doc)
}
