package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/poimport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

/*** HELPERS ***/

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) error {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	_, err := b.api.Request(resp)
	return err
}

// clearPrevStep убрать inline-кнопки у прошлого шага, если он был
func (b *Bot) clearPrevStep(ctx context.Context, chatID int64) {
	st, err := b.states.Get(ctx, chatID)
	if err != nil || st == nil {
		return
	}
	if mid, ok := dialog.GetInt64(st.Payload, "last_mid"); ok {
		rm := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		b.send(tgbotapi.NewEditMessageReplyMarkup(chatID, int(mid), rm))
	}
}

// saveLastStep сохранить id текущего бот-сообщения как «последний»
func (b *Bot) saveLastStep(ctx context.Context, chatID int64, nextState dialog.State, payload dialog.Payload, newMID int) {
	if payload == nil {
		payload = dialog.Payload{}
	}
	payload["last_mid"] = float64(newMID)
	b.setState(ctx, chatID, nextState, payload)
}

func (b *Bot) setState(ctx context.Context, chatID int64, st dialog.State, payload dialog.Payload) {
	if err := b.states.Set(ctx, chatID, st, payload); err != nil {
		b.log.Error("save dialog state failed", "chat_id", chatID, "state", st, "err", err)
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

// sendWithID отправляет и возвращает id сообщения (0 при ошибке).
func (b *Bot) sendWithID(msg tgbotapi.Chattable) int {
	m, err := b.api.Send(msg)
	if err != nil {
		b.log.Error("send failed", "err", err)
		return 0
	}
	return m.MessageID
}

// downloadTelegramFile скачивает файл по FileID через Telegram API.
func (b *Bot) downloadTelegramFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram returned status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

// reply: правим сообщение с кнопками, если оно есть, иначе шлём новое.
func (b *Bot) reply(chatID int64, editMsgID *int, text string, kb tgbotapi.InlineKeyboardMarkup) int {
	if editMsgID != nil {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, *editMsgID, text, kb))
		return *editMsgID
	}
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = kb
	return b.sendWithID(m)
}

// parseQty принимает «12,5», «12.5», «1 000».
func parseQty(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("не число: %q", s)
	}
	if !q.IsPositive() {
		return decimal.Zero, errors.New("количество должно быть больше нуля")
	}
	return q, nil
}

// parseCallback разбирает «prefix:1:2» в числа. Лишние или битые части: false.
func parseCallback(data, prefix string, n int) ([]int64, bool) {
	rest, ok := strings.CutPrefix(data, prefix+":")
	if !ok {
		return nil, false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != n {
		return nil, false
	}
	out := make([]int64, 0, n)
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

// userError: текст ошибки для кладовщика.
func userError(err error) string {
	var re *poimport.RowError
	switch {
	case errors.Is(err, reconciliation.ErrNotFound):
		return "PO не найден или отключён."
	case errors.Is(err, reconciliation.ErrInconsistentLineage):
		return "Ошибка данных: у оригинала PO указан родитель. Сообщите администратору."
	case errors.Is(err, reconciliation.ErrOriginalImmutable):
		return "Оригинальный PO менять нельзя, приёмка идёт по рабочей версии."
	case errors.Is(err, reconciliation.ErrUnknownMaterial):
		return "Такого материала нет в плане PO."
	case errors.Is(err, reconciliation.ErrInvalidInput):
		return "Некорректные данные приёмки."
	case errors.Is(err, reconciliation.ErrWriteFailed):
		return "Не удалось записать приёмку. Попробуйте ещё раз."
	case errors.Is(err, poimport.ErrDuplicatePO):
		return "PO с таким номером уже загружен: " + err.Error()
	case errors.Is(err, poimport.ErrUnknownCustomer):
		return "Неизвестный клиент: " + err.Error()
	case errors.As(err, &re):
		return fmt.Sprintf("Ошибка в строке %d: %v", re.Row, re.Err)
	default:
		return "Внутренняя ошибка, попробуйте позже."
	}
}
