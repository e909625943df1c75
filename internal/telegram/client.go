// Package telegram provides a client for sending forecast notifications via Telegram Bot API.
// It formats forecasts and their stock advisories into MarkdownV2 messages.
//
// Delivery is best effort: callers log failures and never surface them to the
// visitor who requested the forecast.
package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 1
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// NotifyForecast sends one forecast with its advisory
func (c *Client) NotifyForecast(f *models.Forecast) error {
	msg := tgbotapi.NewMessage(c.chatID, formatForecast(f))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if i+1 < c.maxRetries {
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
		}
	}

	return fmt.Errorf("failed to send message after %d attempts: %w", c.maxRetries, lastErr)
}

// formatForecast formats a forecast into a Telegram message
func formatForecast(f *models.Forecast) string {
	sel := f.Selection
	var b strings.Builder

	b.WriteString("🛒 *Wholesale Price Forecast*\n\n")
	fmt.Fprintf(&b, "📍 %s, %s, %s\n",
		escapeMarkdownV2(sel.Market), escapeMarkdownV2(sel.District), escapeMarkdownV2(sel.State))
	fmt.Fprintf(&b, "🥬 %s \\(%s\\)\n",
		escapeMarkdownV2(sel.Commodity), escapeMarkdownV2(sel.Variety))
	fmt.Fprintf(&b, "📅 %s\n\n", escapeMarkdownV2(sel.Date.Format("2006-01-02")))
	fmt.Fprintf(&b, "💸 Rs *%s* per Quintal\n", escapeMarkdownV2(fmt.Sprintf("%.3f", f.Price)))
	fmt.Fprintf(&b, "🚚 Arrival: %s tonnes\n", escapeMarkdownV2(formatTonnes(f.Inputs.Arrival)))

	if msg := f.Advisory.Message(); msg != "" {
		fmt.Fprintf(&b, "\n⚠️ %s \\(%s tonnes\\)\n",
			escapeMarkdownV2(msg), escapeMarkdownV2(formatTonnes(f.AvgArrival)))
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatTonnes formats a tonnage without trailing zeros
func formatTonnes(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
