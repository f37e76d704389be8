// Package notifier delivers rule-triggered notifications over Telegram.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rss_reader/internal/model"
)

const defaultWindow = 30 * time.Minute

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends rule notifications to a single chat. It owns its own
// delivery deduplication: a rule/article pair is delivered at most once
// per suppression window.
type Telegram struct {
	api    telegramAPI
	chatID int64
	window time.Duration
	log    *slog.Logger

	mu     sync.Mutex
	recent map[string]time.Time
}

// NewTelegram creates a Telegram notifier with the given bot token.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return newTelegram(api, chatID, log), nil
}

func newTelegram(api telegramAPI, chatID int64, log *slog.Logger) *Telegram {
	return &Telegram{
		api:    api,
		chatID: chatID,
		window: defaultWindow,
		log:    log,
		recent: make(map[string]time.Time),
	}
}

// SetWindow overrides the default 30-minute suppression window.
func (t *Telegram) SetWindow(d time.Duration) {
	t.window = d
}

// Send delivers a notification for a matched rule, unless the same
// rule/article pair was delivered within the suppression window.
func (t *Telegram) Send(_ context.Context, rule model.Rule, article model.Article) error {
	key := fmt.Sprintf("%d|%s", rule.ID, article.GUID)
	if t.suppressed(key) {
		t.log.Debug("notification suppressed", "rule_id", rule.ID, "guid", article.GUID)
		return nil
	}

	msg := tgbotapi.NewMessage(t.chatID, renderMessage(rule, article))
	if rule.NotificationPriority == model.PriorityLow {
		msg.DisableNotification = true
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	t.record(key)
	return nil
}

func (t *Telegram) suppressed(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	sent, ok := t.recent[key]
	return ok && time.Since(sent) < t.window
}

func (t *Telegram) record(key string) {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recent[key] = now
	for k, sent := range t.recent {
		if now.Sub(sent) >= t.window {
			delete(t.recent, k)
		}
	}
}

// renderMessage fills the rule's notification template. Supported
// placeholders: {{title}}, {{link}}, {{author}}, {{rule}}.
func renderMessage(rule model.Rule, article model.Article) string {
	tpl := rule.NotificationTemplate
	if strings.TrimSpace(tpl) == "" {
		tpl = defaultTemplate(rule)
	}
	r := strings.NewReplacer(
		"{{title}}", article.Title,
		"{{link}}", article.Link,
		"{{author}}", article.Author,
		"{{rule}}", rule.Name,
	)
	text := r.Replace(tpl)
	if rule.NotificationPriority == model.PriorityHigh {
		text = "❗ " + text
	}
	return text
}

func defaultTemplate(rule model.Rule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s]\n\n", rule.Name)
	b.WriteString("{{title}}")
	b.WriteString("\n\n{{link}}")
	return b.String()
}

// Disabled is a no-op notifier used when no Telegram token is
// configured. SendNotification actions still count as applied.
type Disabled struct {
	Log *slog.Logger
}

// Send logs the skipped delivery and succeeds.
func (d Disabled) Send(_ context.Context, rule model.Rule, article model.Article) error {
	d.Log.Info("notifications disabled, skipping delivery", "rule_id", rule.ID, "article_id", article.ID)
	return nil
}
