// Package notify pushes new jobs and run summaries to Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"job-collector/internal/config"
	"job-collector/internal/logging"
	"job-collector/internal/models"
)

// Notifier reports run results to a person.
type Notifier interface {
	SendJobs(ctx context.Context, jobs []models.JobRecord) (sent int, err error)
	SendStatus(ctx context.Context, message string) error
	SendError(ctx context.Context, err error) error
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends at most one message per second to keep clear of the
// Bot API's 429 responses.
type Telegram struct {
	api     sender
	chatID  int64
	limiter *rate.Limiter
	log     *logging.Logger
}

func NewTelegram(cfg config.TelegramConfig, log *logging.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return newTelegram(api, cfg.ChatID, log), nil
}

func newTelegram(api sender, chatID int64, log *logging.Logger) *Telegram {
	if log == nil {
		log = logging.Nop()
	}
	return &Telegram{
		api:     api,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		log:     log,
	}
}

func (t *Telegram) send(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := t.api.Send(msg)
	return err
}

// SendJobs sends one message per job. A failed message is logged and the
// rest are still sent; only cancellation stops early.
func (t *Telegram) SendJobs(ctx context.Context, jobs []models.JobRecord) (int, error) {
	sent := 0
	for _, job := range jobs {
		err := t.send(ctx, jobMessage(t.chatID, job))
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if err != nil {
			t.log.Warn("⚠️ failed to send job to telegram", "url", job.URL, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (t *Telegram) SendStatus(ctx context.Context, message string) error {
	return t.send(ctx, tgbotapi.NewMessage(t.chatID, "ℹ️ "+message))
}

func (t *Telegram) SendError(ctx context.Context, err error) error {
	return t.send(ctx, tgbotapi.NewMessage(t.chatID, fmt.Sprintf("❌ Error: %v", err)))
}

func jobMessage(chatID int64, job models.JobRecord) tgbotapi.MessageConfig {
	var b strings.Builder
	fmt.Fprintf(&b, "🔥 *%s*\n", escapeMarkdown(orNA(job.Title)))
	fmt.Fprintf(&b, "🏢 %s\n", escapeMarkdown(orNA(job.Company)))
	if job.Salary != "" {
		fmt.Fprintf(&b, "💰 %s\n", escapeMarkdown(job.Salary))
	}
	fmt.Fprintf(&b, "📍 %s\n", escapeMarkdown(orNA(job.Location)))
	if job.PostedDate != "" {
		fmt.Fprintf(&b, "📅 %s\n", escapeMarkdown(job.PostedDate))
	}
	if job.SearchQuery != "" {
		fmt.Fprintf(&b, "🔎 %s\n", escapeMarkdown(job.SearchQuery))
	}
	fmt.Fprintf(&b, "🔖 Source: %s\n", escapeMarkdown(string(job.Source)))
	if job.URL != "" {
		fmt.Fprintf(&b, "🔗 [View Job](%s)\n", escapeLinkURL(job.URL))
	}

	msg := tgbotapi.NewMessage(chatID, b.String())
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if job.URL != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("🔗 View Job", job.URL)),
		)
	}
	return msg
}

var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Inside (...) of a MarkdownV2 link only ')' and '\' need escaping.
var linkEscaper = strings.NewReplacer("\\", "\\\\", ")", "\\)")

func escapeLinkURL(s string) string {
	return linkEscaper.Replace(s)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Nop discards every notification.
type Nop struct{}

func (Nop) SendJobs(context.Context, []models.JobRecord) (int, error) { return 0, nil }
func (Nop) SendStatus(context.Context, string) error                  { return nil }
func (Nop) SendError(context.Context, error) error                    { return nil }
