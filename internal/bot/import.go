package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/users"
	"github.com/Spok95/po-tracker/internal/poimport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) askImportFile(ctx context.Context, chatID int64) {
	text := "Пришлите Excel (.xlsx) с оригинальными PO.\nКолонки: " + strings.Join(poimport.Columns, ", ") +
		".\nОдна строка — одна плановая позиция, дата в формате ГГГГ-ММ-ДД."
	mid := b.reply(chatID, nil, text, navKeyboard(false, true))
	b.saveLastStep(ctx, chatID, dialog.StatePOImportFile, dialog.Payload{}, mid)
}

// onImportFile читает файл с оригиналами PO и заводит их с первой рабочей версией.
func (b *Bot) onImportFile(ctx context.Context, chatID int64, u *users.User, doc *tgbotapi.Document) {
	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		b.send(tgbotapi.NewMessage(chatID, "Нужен файл .xlsx"))
		return
	}

	data, err := b.downloadTelegramFile(ctx, doc.FileID)
	if err != nil {
		b.log.Error("download import file failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Не удалось скачать файл из Telegram."))
		return
	}

	pos, err := poimport.Parse(bytes.NewReader(data))
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Файл не принят. "+userError(err)))
		return
	}

	done, err := b.importer.Import(ctx, pos, u.ID)
	if err != nil {
		b.log.Warn("po import failed", "file", doc.FileName, "imported", len(done), "err", err)
		msg := "Импорт остановлен. " + userError(err)
		if len(done) > 0 {
			msg += fmt.Sprintf("\nДо ошибки загружено PO: %d.", len(done))
		}
		b.send(tgbotapi.NewMessage(chatID, msg))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Загружено PO: %d\n", len(done)))
	for _, im := range done {
		sb.WriteString(fmt.Sprintf("— %s: строк %d, рабочая версия #%d\n", im.Original.PONumber, im.Lines, im.Operation.ID))
	}
	b.clearPrevStep(ctx, chatID)
	_ = b.states.Reset(ctx, chatID)
	b.send(tgbotapi.NewMessage(chatID, sb.String()))
}
