package notifier

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clip-relay/internal/logging"
	"clip-relay/internal/metrics"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// DefaultBaseURL is the public Telegram Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// DefaultTimeout bounds a single Bot API request, upload included.
const DefaultTimeout = 60 * time.Second

// Bot API methods used by clip-relay.
const (
	MethodSendVideo    = "sendVideo"
	MethodSendDocument = "sendDocument"
	MethodSendPhoto    = "sendPhoto"
	MethodSendMessage  = "sendMessage"
)

// Config holds the bot credential and chat target.
type Config struct {
	Token   string
	ChatID  string
	BaseURL string
	Timeout time.Duration
}

// Client sends media and alerts to a single chat.
type Client struct {
	config  Config
	bot     *bot.Bot
	initErr error
}

// APIError is returned when a Bot API call fails. The bot token never
// appears in its message.
type APIError struct {
	Method      string
	Description string
	Err         error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s failed: %s", e.Method, e.Description)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// New creates a new Client. The bot is never polled, so no getMe round trip
// is made. Empty credentials are accepted; every send then fails.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	c := &Client{config: config}
	c.bot, c.initErr = bot.New(config.Token,
		bot.WithServerURL(config.BaseURL),
		bot.WithSkipGetMe(),
		bot.WithHTTPClient(config.Timeout, &http.Client{Timeout: config.Timeout}),
	)
	if c.initErr != nil {
		logging.Warn("Telegram client unavailable: %v", c.scrub(c.initErr))
	}
	return c
}

// SendVideo uploads an MP4 silently.
func (c *Client) SendVideo(ctx context.Context, path, caption string) error {
	return c.sendFile(ctx, MethodSendVideo, path, func(b *bot.Bot, file models.InputFile) error {
		_, err := b.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:              c.config.ChatID,
			Video:               file,
			Caption:             caption,
			DisableNotification: true,
		})
		return err
	})
}

// SendDocument uploads a file silently. Telegram renders GIF documents as animations.
func (c *Client) SendDocument(ctx context.Context, path, caption string) error {
	return c.sendFile(ctx, MethodSendDocument, path, func(b *bot.Bot, file models.InputFile) error {
		_, err := b.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:              c.config.ChatID,
			Document:            file,
			Caption:             caption,
			DisableNotification: true,
		})
		return err
	})
}

// SendPhoto uploads an image silently.
func (c *Client) SendPhoto(ctx context.Context, path, caption string) error {
	return c.sendFile(ctx, MethodSendPhoto, path, func(b *bot.Bot, file models.InputFile) error {
		_, err := b.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:              c.config.ChatID,
			Photo:               file,
			Caption:             caption,
			DisableNotification: true,
		})
		return err
	})
}

// SendMessage posts a plain text message with notifications enabled.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return c.call(MethodSendMessage, func(b *bot.Bot) error {
		_, err := b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: c.config.ChatID,
			Text:   text,
		})
		return err
	})
}

func (c *Client) sendFile(ctx context.Context, method, path string, send func(*bot.Bot, models.InputFile) error) error {
	f, err := os.Open(path)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(method, "error").Inc()
		logging.Error("Telegram %s: failed to prepare %s: %v", method, path, err)
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	upload := &models.InputFileUpload{Filename: filepath.Base(path), Data: f}
	return c.call(method, func(b *bot.Bot) error {
		return send(b, upload)
	})
}

func (c *Client) call(method string, fn func(*bot.Bot) error) error {
	if c.initErr != nil {
		metrics.UploadsTotal.WithLabelValues(method, "error").Inc()
		return &APIError{Method: method, Description: c.scrub(c.initErr), Err: c.initErr}
	}

	start := time.Now()
	err := fn(c.bot)
	metrics.UploadDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.UploadsTotal.WithLabelValues(method, "error").Inc()
		apiErr := &APIError{Method: method, Description: c.scrub(err), Err: err}
		logging.Error("%v", apiErr)
		return apiErr
	}

	metrics.UploadsTotal.WithLabelValues(method, "success").Inc()
	logging.Debug("Telegram %s succeeded in %v", method, time.Since(start))
	return nil
}

// scrub renders err without the bot token, which transport errors carry
// inside the request URL.
func (c *Client) scrub(err error) string {
	msg := err.Error()
	if c.config.Token != "" {
		msg = strings.ReplaceAll(msg, c.config.Token, "<token>")
	}
	return msg
}
