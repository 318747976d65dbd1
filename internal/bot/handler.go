package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"reelbox/internal/catalog"
	"reelbox/internal/config"
	"reelbox/internal/state"
)

// commands are routed to execute; anything else is treated as a search.
var commands = []string{
	"/start", "/help", "/search", "/movie", "/add", "/remove",
	"/mylist", "/reviews", "/review", "/unreview",
}

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot     *tgbot.Bot
	cfg     config.Config
	store   *state.Store
	catalog *catalog.Catalog
	now     func() time.Time
	log     logrus.FieldLogger

	unsubscribe func()
}

// NewHandler creates a new bot handler instance.
func NewHandler(cfg config.Config, store *state.Store, cat *catalog.Catalog, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	h := &Handler{
		cfg:     cfg,
		store:   store,
		catalog: cat,
		now:     time.Now,
		log:     log,
	}

	b, err := tgbot.New(cfg.TelegramBotToken, tgbot.WithDefaultHandler(h.defaultHandler))
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	h.bot = b

	h.registerHandlers()
	h.unsubscribe = store.Subscribe(h.logMutation)

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// registerHandlers sets up the command and callback handlers.
func (h *Handler) registerHandlers() {
	for _, cmd := range commands {
		h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, cmd, tgbot.MatchTypePrefix, h.commandHandler)
	}
	h.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "fav:", tgbot.MatchTypePrefix, h.callbackHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeCallbackQueryData, "page:", tgbot.MatchTypePrefix, h.callbackHandler)
	h.log.WithField("commands", len(commands)).Info("Registered command handlers")
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.log.Info("Telegram bot polling stopped.")
}

func (h *Handler) commandHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.respond(ctx, b, update.Message)
}

// defaultHandler treats plain text as a title search.
func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	h.respond(ctx, b, update.Message)
}

func (h *Handler) respond(ctx context.Context, b *tgbot.Bot, msg *models.Message) {
	author := ""
	log := h.log.WithField("chat_id", msg.Chat.ID)
	if msg.From != nil {
		author = msg.From.FirstName
		log = log.WithField("user_id", msg.From.ID)
	}
	log.WithField("text", msg.Text).Debug("Received message")

	r := h.execute(ctx, msg.Text, author)
	params := &tgbot.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   r.Text,
	}
	if r.Markup != nil {
		params.ReplyMarkup = r.Markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		log.WithError(err).Error("Failed to send reply")
	}
}

func (h *Handler) callbackHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	cq := update.CallbackQuery
	if cq == nil {
		return
	}
	log := h.log.WithFields(logrus.Fields{
		"user_id":  cq.From.ID,
		"callback": cq.Data,
	})
	log.Debug("Received callback")

	r, notice := h.executeCallback(ctx, cq.Data)
	if _, err := b.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{
		CallbackQueryID: cq.ID,
		Text:            notice,
	}); err != nil {
		log.WithError(err).Warn("Failed to answer callback")
	}

	msg := cq.Message.Message
	if msg == nil || r.Text == "" {
		return
	}
	params := &tgbot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      r.Text,
	}
	if r.Markup != nil {
		params.ReplyMarkup = r.Markup
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		log.WithError(err).Error("Failed to update message")
	}
}

// logMutation is subscribed to the store.
func (h *Handler) logMutation(a state.Action) {
	h.log.WithFields(logrus.Fields{
		"action":  a.Type,
		"id":      a.ID,
		"changed": a.Changed,
	}).Debug("Store updated")
}
