package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"chronicle/internal/model"
)

// Telegram allows roughly 30 messages per second per bot.
const defaultMessagesPerSecond = 25

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// TelegramNotifier delivers notifications as Telegram chat messages.
type TelegramNotifier struct {
	api     sender
	users   userFinder
	limiter *rate.Limiter
	log     zerolog.Logger
}

// NewTelegramBot authorizes token against the Bot API.
func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func NewTelegramNotifier(api sender, users userFinder, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		api:     api,
		users:   users,
		limiter: rate.NewLimiter(rate.Limit(defaultMessagesPerSecond), defaultMessagesPerSecond),
		log:     log.With().Str("component", "telegram").Logger(),
	}
}

func (n *TelegramNotifier) Notify(ctx context.Context, userID string, msg Notification) error {
	user, err := n.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("user %s: %w", userID, ErrNoRecipient)
	}
	if err != nil {
		return fmt.Errorf("find user %s: %w", userID, err)
	}
	if user.TelegramChatID == nil {
		return fmt.Errorf("user %s: %w", userID, ErrNoRecipient)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	out := tgbotapi.NewMessage(*user.TelegramChatID, renderHTML(msg))
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(out); err != nil {
		return fmt.Errorf("send to chat %d: %w", *user.TelegramChatID, err)
	}
	n.log.Debug().Str("user", userID).Str("type", msg.Type).Msg("notification sent")
	return nil
}

func renderHTML(msg Notification) string {
	var sb strings.Builder
	if title := strings.TrimSpace(msg.Title); title != "" {
		sb.WriteString("<b>")
		sb.WriteString(html.EscapeString(title))
		sb.WriteString("</b>\n\n")
	}
	sb.WriteString(html.EscapeString(strings.TrimSpace(msg.Body)))
	return strings.TrimSpace(sb.String())
}
