package bot

import (
	"context"
	"strings"

	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/users"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		role := users.RoleStorekeeper
		// авто-админ
		if msg.From.ID == b.opts.AdminChatID {
			role = users.RoleAdmin
		}
		u, err := b.users.UpsertFromTelegram(ctx, users.Telegram{
			ID:        msg.From.ID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
		}, role)
		if err != nil {
			b.log.Error("upsert user failed", "tg_id", msg.From.ID, "err", err)
			b.send(tgbotapi.NewMessage(chatID, "Ошибка: не удалось сохранить профиль"))
			return
		}
		_ = b.states.Reset(ctx, chatID)

		m := tgbotapi.NewMessage(chatID, "Готово! Для приёмки материалов по PO жми «"+btnReceive+"».")
		m.ReplyMarkup = storekeeperReplyKeyboard()
		if u.IsAdmin() {
			m.Text = "Привет, админ! Приёмка — «" + btnReceive + "», загрузка оригиналов PO из Excel — «" + btnImport + "»."
			m.ReplyMarkup = adminReplyKeyboard()
		}
		b.send(m)
		return

	case "help":
		b.send(tgbotapi.NewMessage(chatID,
			"Команды:\n/start — начать работу\n/receive — приёмка материалов по PO\n/help — помощь"))
		return

	case "receive":
		if b.operator(ctx, msg.From.ID) == nil {
			b.send(tgbotapi.NewMessage(chatID, "Сначала /start"))
			return
		}
		b.askSearch(ctx, chatID, nil)
		return

	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
		return
	}
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	u := b.operator(ctx, msg.From.ID)
	if u == nil {
		b.send(tgbotapi.NewMessage(chatID, "Сначала /start"))
		return
	}

	// Нижняя панель
	switch msg.Text {
	case btnReceive:
		b.clearPrevStep(ctx, chatID)
		b.askSearch(ctx, chatID, nil)
		return
	case btnImport:
		if !u.IsAdmin() {
			b.send(tgbotapi.NewMessage(chatID, "Доступ запрещён."))
			return
		}
		b.clearPrevStep(ctx, chatID)
		b.askImportFile(ctx, chatID)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("load dialog state failed", "chat_id", chatID, "err", err)
		return
	}

	switch st.State {
	case dialog.StateRcvSearch:
		term := strings.TrimSpace(msg.Text)
		if term == "-" {
			term = ""
		}
		b.clearPrevStep(ctx, chatID)
		b.showSearchResults(ctx, chatID, nil, term)

	case dialog.StateRcvQty:
		b.onQtyEntered(ctx, chatID, u, st.Payload, msg.Text)

	case dialog.StatePOImportFile:
		if msg.Document == nil {
			b.send(tgbotapi.NewMessage(chatID, "Пришлите файл .xlsx документом."))
			return
		}
		if !u.IsAdmin() {
			b.send(tgbotapi.NewMessage(chatID, "Доступ запрещён."))
			return
		}
		b.onImportFile(ctx, chatID, u, msg.Document)

	default:
		if msg.Document != nil && u.IsAdmin() {
			b.send(tgbotapi.NewMessage(chatID, "Чтобы загрузить PO, нажмите «"+btnImport+"»."))
			return
		}
		b.send(tgbotapi.NewMessage(chatID, "Выберите действие на панели снизу или /help"))
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	// Общая навигация
	if data == "nav:cancel" {
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Операция отменена.")
		_ = b.answerCallback(cb, "Отменено", false)
		return
	}
	if data == "nav:back" {
		b.onBack(ctx, chatID, msgID)
		_ = b.answerCallback(cb, "", false)
		return
	}

	u := b.operator(ctx, cb.From.ID)
	if u == nil {
		_ = b.answerCallback(cb, "Сначала /start", true)
		return
	}

	if ids, ok := parseCallback(data, "rcv:po", 1); ok {
		b.showCard(ctx, chatID, &msgID, ids[0])
		_ = b.answerCallback(cb, "", false)
		return
	}
	if ids, ok := parseCallback(data, "rcv:ln", 2); ok {
		b.onLinePicked(ctx, chatID, msgID, ids[0], int(ids[1]))
		_ = b.answerCallback(cb, "", false)
		return
	}
	if ids, ok := parseCallback(data, "rcv:wh", 1); ok {
		st, err := b.states.Get(ctx, chatID)
		if err != nil || st.State != dialog.StateRcvPickWh {
			_ = b.answerCallback(cb, "Шаг устарел", false)
			return
		}
		b.askQty(ctx, chatID, &msgID, st.Payload, ids[0])
		_ = b.answerCallback(cb, "", false)
		return
	}
	if ids, ok := parseCallback(data, "rcv:hist", 1); ok {
		b.sendHistory(ctx, chatID, ids[0])
		_ = b.answerCallback(cb, "", false)
		return
	}
	if ids, ok := parseCallback(data, "rcv:xlsx", 1); ok {
		_ = b.answerCallback(cb, "Формирую файл…", false)
		b.sendReport(ctx, chatID, ids[0])
		return
	}

	_ = b.answerCallback(cb, "Неизвестная команда", false)
}

func (b *Bot) onBack(ctx context.Context, chatID int64, msgID int) {
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.log.Error("load dialog state failed", "chat_id", chatID, "err", err)
		return
	}
	switch st.State {
	case dialog.StateRcvPickPO:
		b.askSearch(ctx, chatID, &msgID)
	case dialog.StateRcvCard:
		term, _ := dialog.GetString(st.Payload, "term")
		b.showSearchResults(ctx, chatID, &msgID, term)
	case dialog.StateRcvPickWh, dialog.StateRcvQty:
		if poID, ok := dialog.GetInt64(st.Payload, "po_id"); ok {
			b.showCard(ctx, chatID, &msgID, poID)
			return
		}
		b.askSearch(ctx, chatID, &msgID)
	default:
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Выберите действие на панели снизу.")
	}
}
