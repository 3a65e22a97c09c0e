package service

import (
	"context"
	"fmt"

	"ton_mining_miniapp/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type BotConfig struct {
	BotToken string
	Debug    bool
	AppURL   string
}

// BotNotifier sends chat messages through the Mini App's bot and answers
// /start with a button that opens the app.
type BotNotifier struct {
	bot    *tgbotapi.BotAPI
	appURL string
}

func NewBotNotifier(config BotConfig) (*BotNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}

	bot.Debug = config.Debug

	return &BotNotifier{
		bot:    bot,
		appURL: config.AppURL,
	}, nil
}

func (n *BotNotifier) Notify(ctx context.Context, telegramID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.Send(tgbotapi.NewMessage(telegramID, text))
	return err
}

func (n *BotNotifier) handleStart(msg *tgbotapi.Message) error {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Mine, spin and win TON. Open the app to start.")
	if n.appURL != "" {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Open app", n.appURL),
			),
		)
	}
	_, err := n.bot.Send(reply)
	return err
}

// AvatarPath returns the bot API file path of the user's newest profile
// photo, or "" when there is none.
func (n *BotNotifier) AvatarPath(ctx context.Context, telegramID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	photos, err := n.bot.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{
		UserID: telegramID,
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get user photos: %w", err)
	}

	if len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", nil
	}

	file, err := n.bot.GetFile(tgbotapi.FileConfig{
		FileID: photos.Photos[0][0].FileID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}

	return file.FilePath, nil
}

// Listen polls bot updates until ctx is done.
func (n *BotNotifier) Listen(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := n.bot.GetUpdatesChan(updateConfig)
	defer n.bot.StopReceivingUpdates()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if update.Message.Command() == "start" {
				if err := n.handleStart(update.Message); err != nil {
					logger.Logger().Error("Failed to answer /start",
						zap.Int64("chat_id", update.Message.Chat.ID),
						zap.Error(err))
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// NopNotifier drops every message. It stands in when no bot token is set.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, int64, string) error { return nil }

func (NopNotifier) AvatarPath(context.Context, int64) (string, error) { return "", nil }

func notify(ctx context.Context, n Notifier, telegramID int64, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, telegramID, text); err != nil {
		logger.Logger().Warn("Failed to send notification",
			zap.Int64("telegram_id", telegramID),
			zap.Error(err))
	}
}
