// Package notify delivers check-completion messages to subscribers via
// the Telegram bot API. Delivery is best-effort: failures are logged and
// never propagate into the check pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/msklnkk/Electronic-corrector/checker"
	"github.com/msklnkk/Electronic-corrector/store"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram sends check results to a configured chat.
type Telegram struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
	logger  *slog.Logger
}

// Option customises a Telegram notifier.
type Option func(*Telegram)

// WithAPIBase overrides the bot API endpoint (used in tests).
func WithAPIBase(base string) Option {
	return func(t *Telegram) { t.apiBase = base }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Telegram) { t.logger = logger }
}

// NewTelegram creates a notifier for one bot token and chat.
func NewTelegram(token, chatID string, opts ...Option) *Telegram {
	t := &Telegram{
		token:   token,
		chatID:  chatID,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// CheckCompleted sends a short verdict summary for a finished check.
func (t *Telegram) CheckCompleted(ctx context.Context, doc store.Document, report *checker.DocumentCheckReport) {
	verdict := "отправлена на доработку"
	if report.IsCompliant() {
		verdict = "соответствует требованиям"
	}
	text := fmt.Sprintf(
		"Проверка документа «%s» завершена: работа %s.\nПройдено проверок: %d из %d (%.0f%%).",
		doc.Filename, verdict, report.PassedChecks, report.TotalChecks, report.Score())

	if err := t.sendMessage(ctx, text); err != nil {
		t.logger.Warn("telegram notification failed", "document_id", doc.ID, "error", err)
	}
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    text,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sendMessage: status %d", resp.StatusCode)
	}
	return nil
}
