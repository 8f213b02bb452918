// Package telegram serves the menu through a Telegram bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"digimess/internal/app"
	"digimess/internal/config"
	"digimess/internal/logging"
	"digimess/internal/menu"
	"digimess/internal/metrics"
)

// botAPI is the part of tgbotapi.BotAPI the bot talks through.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	HandleUpdate(r *http.Request) (*tgbotapi.Update, error)
}

// UsageReporter supplies the admin /metrics report.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
	GetOperationCounts(ctx context.Context, days int) ([]metrics.OperationCount, error)
}

const (
	callbackMess = "mess"
	callbackPref = "pref"
)

// Bot wraps the Telegram API and the menu app.
type Bot struct {
	api    botAPI
	tg     *tgbotapi.BotAPI
	app    *app.App
	usage  UsageReporter
	cfg    *config.Config
	logger *logging.Logger
}

// NewBot initializes the Telegram Bot. With a webhook URL configured the
// webhook is registered; otherwise Poll must be run.
func NewBot(cfg *config.Config, application *app.App, usage UsageReporter, logger *logging.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.WithField("account", api.Self.UserName).Info("Authorized on Telegram")

	if cfg.TelegramWebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
		if err != nil {
			return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
		}
		resp, err := api.Request(wh)
		if err != nil {
			return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
		}
		logger.WithField("description", resp.Description).Info("Webhook set")
	}

	b := newBot(api, cfg, application, usage, logger)
	b.tg = api
	return b, nil
}

func newBot(api botAPI, cfg *config.Config, application *app.App, usage UsageReporter, logger *logging.Logger) *Bot {
	return &Bot{api: api, app: application, usage: usage, cfg: cfg, logger: logger}
}

// ServeHTTP handles webhook deliveries.
func (b *Bot) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	update, err := b.api.HandleUpdate(r)
	if err != nil {
		b.logger.WithError(err).Warn("Error parsing update")
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go b.HandleUpdate(context.Background(), *update)
}

// Poll receives updates by long polling until ctx is done.
func (b *Bot) Poll(ctx context.Context) error {
	if b.tg == nil {
		return errors.New("polling needs a live bot")
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.tg.StopReceivingUpdates()
			return nil
		case update := <-updates:
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if !b.allowed(update.CallbackQuery.From) {
			return
		}
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		if !b.allowed(update.Message.From) {
			return
		}
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if !b.cfg.TelegramAllowed(from.ID) {
		b.logger.WithFields(logging.Fields{
			"user_id":  from.ID,
			"username": from.UserName,
		}).Warn("Unauthorized access attempt")
		return false
	}
	return true
}

func userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	uid := userID(msg.From)

	command := msg.Command()
	switch command {
	case "mess", "reset", "help", "metrics":
	default:
		needs, err := b.app.NeedsSetup(ctx, uid)
		if err != nil {
			b.logger.WithError(err).Error("Failed to check setup state")
		} else if needs {
			b.sendSetupPrompt(ctx, chatID, uid)
			if command == "" || command == "start" {
				return
			}
		}
	}

	switch command {
	case "today":
		view, err := b.app.TodaysMenu(ctx, uid, "")
		b.replyDay(chatID, view, err)
	case "date":
		date, err := b.app.ParseDate(msg.CommandArguments())
		if err != nil {
			b.reply(chatID, formatError(err))
			return
		}
		view, err := b.app.DayMenu(ctx, uid, date, "")
		b.replyDay(chatID, view, err)
	case "week":
		date, err := b.app.ParseDate(msg.CommandArguments())
		if err != nil {
			b.reply(chatID, formatError(err))
			return
		}
		view, err := b.app.WeekMenu(ctx, uid, date, "", "")
		if err != nil {
			b.reply(chatID, formatError(err))
			return
		}
		b.reply(chatID, formatWeek(view))
	case "mess":
		b.sendSetupPrompt(ctx, chatID, uid)
	case "prefs":
		b.handlePreferences(ctx, chatID, uid)
	case "reset":
		if err := b.app.ClearUserData(ctx, uid); err != nil {
			b.logger.WithError(err).Error("Failed to clear user data")
			b.reply(chatID, formatError(err))
			return
		}
		b.reply(chatID, "🧹 Your preferences were deleted. Use /mess to start again.")
	case "metrics":
		b.handleMetricsRequest(ctx, msg)
	default:
		b.reply(chatID, helpText)
	}
}

func (b *Bot) replyDay(chatID int64, view *app.DayView, err error) {
	if err != nil {
		b.reply(chatID, formatError(err))
		return
	}
	b.reply(chatID, formatDay(view))
}

// sendSetupPrompt offers today's categories. The cycle prompt is shown once
// per cycle; unfinished onboarding keeps prompting.
func (b *Bot) sendSetupPrompt(ctx context.Context, chatID int64, uid string) {
	cats, err := b.app.CategoriesOn(ctx)
	if err != nil {
		b.reply(chatID, formatError(err))
		return
	}
	if len(cats) == 0 {
		b.reply(chatID, "📭 No mess is serving today.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, "🍛 Which mess do you eat at this cycle?")
	msg.ReplyMarkup = categoryKeyboard(callbackMess, cats)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Warn("Failed to send setup prompt")
		return
	}
	if err := b.app.DismissCyclePrompt(ctx, uid); err != nil {
		b.logger.WithError(err).Warn("Failed to record cycle prompt")
	}
}

func (b *Bot) handlePreferences(ctx context.Context, chatID int64, uid string) {
	view, err := b.app.Preferences(ctx, uid)
	if err != nil {
		b.reply(chatID, formatError(err))
		return
	}
	msg := tgbotapi.NewMessage(chatID, formatPreferences(view))
	msg.ParseMode = tgbotapi.ModeMarkdown
	if next := view.Next; next != nil && len(next.AvailableCategories) > 0 {
		msg.ReplyMarkup = categoryKeyboard(callbackPref+"|"+next.Cycle.Name, next.AvailableCategories)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).Warn("Failed to send preferences")
	}
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Answer callback to remove spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.logger.WithError(err).Debug("Failed to answer callback")
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID
	uid := userID(query.From)

	parts := strings.Split(query.Data, "|")
	var (
		text string
		err  error
	)
	switch {
	case len(parts) == 2 && parts[0] == callbackMess:
		cat := menu.Category(parts[1])
		if err = b.app.CompleteSetup(ctx, uid, cat); err == nil {
			text = fmt.Sprintf("✅ Saved: %s. Try /today.", b.app.Catalog().Label(cat))
		}
	case len(parts) == 3 && parts[0] == callbackPref:
		cat := menu.Category(parts[2])
		if err = b.app.SetPreference(ctx, uid, parts[1], cat); err == nil {
			text = fmt.Sprintf("✅ %s: %s.", parts[1], b.app.Catalog().Label(cat))
		}
	default:
		return
	}
	if err != nil {
		text = formatError(err)
	}

	edit := tgbotapi.NewEditMessageText(chatID, query.Message.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.WithError(err).Warn("Failed to edit message")
	}
}

func (b *Bot) handleMetricsRequest(ctx context.Context, msg *tgbotapi.Message) {
	if b.cfg.AdminTelegramID == 0 || msg.From.ID != b.cfg.AdminTelegramID {
		b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
		return
	}
	if b.usage == nil {
		b.reply(msg.Chat.ID, "📊 Metrics are not being recorded.")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.WithError(err).Error("Failed to fetch daily usage")
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	ops, err := b.usage.GetOperationCounts(ctx, 7)
	if err != nil {
		b.logger.WithError(err).Error("Failed to fetch operation counts")
		b.reply(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}
	b.reply(msg.Chat.ID, formatMetrics(usage, ops, metrics.GetSysHealth(b.cfg.DataDir)))
}

// reply sends Markdown text, split to fit Telegram's limit.
func (b *Bot) reply(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := b.api.Send(msg); err != nil {
			b.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send message")
			return
		}
	}
}
