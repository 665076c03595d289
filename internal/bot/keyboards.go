package bot

import (
	"fmt"

	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnReceive = "Приёмка"
	btnImport  = "Импорт PO"
)

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// adminReplyKeyboard Нижняя панель (ReplyKeyboard) для админа
func adminReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnReceive)},
			{tgbotapi.NewKeyboardButton(btnImport)},
		},
	}
}

func storekeeperReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnReceive)},
		},
	}
}

func poListKeyboard(list []reconciliation.POSummary) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+1)
	for _, s := range list {
		label := fmt.Sprintf("%s v%d · %s · строк: %d", s.PONumber, s.VersionNumber, s.CustomerName, s.LinesOutstanding)
		if s.OverReceived {
			label += " ⚠️"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("rcv:po:%d", s.ID)),
		))
	}
	rows = append(rows, navKeyboard(true, true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cardKeyboard(rec *reconciliation.Reconciliation) tgbotapi.InlineKeyboardMarkup {
	poID := rec.PurchaseOrder.ID
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, l := range rec.Lines {
		label := fmt.Sprintf("➕ %d. %s", l.LineNo, l.MaterialCode)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("rcv:ln:%d:%d", poID, l.LineNo)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📜 История", fmt.Sprintf("rcv:hist:%d", poID)),
		tgbotapi.NewInlineKeyboardButtonData("📊 Excel", fmt.Sprintf("rcv:xlsx:%d", poID)),
	))
	rows = append(rows, navKeyboard(true, true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func warehouseKeyboard(ws []catalog.Warehouse) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, w := range ws {
		if !w.Active {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(w.Name, fmt.Sprintf("rcv:wh:%d", w.ID)),
		))
	}
	rows = append(rows, navKeyboard(true, true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
