package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/Spok95/po-tracker/internal/dialog"
	"github.com/Spok95/po-tracker/internal/domain/catalog"
	"github.com/Spok95/po-tracker/internal/domain/reconciliation"
	"github.com/Spok95/po-tracker/internal/domain/users"
	"github.com/Spok95/po-tracker/internal/poimport"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Options struct {
	AdminChatID        int64
	DefaultWarehouseID int64         // 0: спрашивать склад
	ReplyWithin        time.Duration // лимит на обработку одного апдейта
}

type Bot struct {
	api      *tgbotapi.BotAPI
	log      *slog.Logger
	users    *users.Repo
	states   *dialog.Repo
	catalog  *catalog.Repo
	tracker  *reconciliation.Service
	importer *poimport.Importer
	opts     Options
}

func New(api *tgbotapi.BotAPI, log *slog.Logger,
	usersRepo *users.Repo, statesRepo *dialog.Repo, catalogRepo *catalog.Repo,
	tracker *reconciliation.Service, importer *poimport.Importer, opts Options) *Bot {

	if opts.ReplyWithin <= 0 {
		opts.ReplyWithin = 10 * time.Second
	}
	return &Bot{
		api: api, log: log, users: usersRepo, states: statesRepo,
		catalog: catalogRepo, tracker: tracker, importer: importer, opts: opts,
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			b.handle(ctx, upd)
		}
	}
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.ReplyWithin)
	defer cancel()

	if upd.Message != nil {
		b.onMessage(ctx, upd)
	} else if upd.CallbackQuery != nil {
		b.onCallback(ctx, upd)
	}
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg.From == nil {
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleStateMessage(ctx, msg)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery.Message == nil {
		return
	}
	b.handleCallback(ctx, upd.CallbackQuery)
}

// operator: зарегистрированный пользователь или nil.
func (b *Bot) operator(ctx context.Context, tgID int64) *users.User {
	u, err := b.users.GetByTelegramID(ctx, tgID)
	if err != nil {
		b.log.Error("load user failed", "tg_id", tgID, "err", err)
		return nil
	}
	return u
}
