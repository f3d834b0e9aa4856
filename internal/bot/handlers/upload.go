package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/repository"
	"mailstore-bot/internal/stockcache"
	"mailstore-bot/internal/stockfile"
	"mailstore-bot/pkg/config"
)

// NewStockUploadHandler ingests a stock file sent by the admin. The document
// caption selects the catalog service the credentials belong to. Users are
// notified about the restock in the background.
func NewStockUploadHandler(
	adminID int64,
	store config.StoreConfig,
	stocks repository.StockRepository,
	cache *stockcache.Cache,
	tasks TaskRunner,
	broadcaster Broadcaster,
	log *slog.Logger,
) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil || sender.ID != adminID {
			return nil
		}

		doc := c.Message().Document
		if doc == nil {
			return nil
		}

		service := strings.TrimSpace(c.Message().Caption)
		if service == "" {
			return c.Send("❌ Caption must be the service name! (e.g. Gmail (6-12 Hours))")
		}
		if _, ok := store.Price(service); !ok {
			return apperrors.NewValidationError(fmt.Sprintf("Unknown service %q. Caption must match a catalog entry.", service))
		}

		rc, err := c.Bot().File(&doc.File)
		if err != nil {
			return apperrors.NewTransportError(err)
		}
		defer rc.Close()

		credentials, err := stockfile.Decode(doc.FileName, rc)
		if err != nil {
			switch {
			case errors.Is(err, stockfile.ErrUnsupportedFormat):
				return c.Send("❌ Unsupported file type. Use .txt, .csv or .xlsx.")
			case errors.Is(err, stockfile.ErrEmpty):
				return c.Send("❌ The file contains no credentials.")
			default:
				return err
			}
		}

		if store.UploadMaxLines > 0 && len(credentials) > store.UploadMaxLines {
			return apperrors.NewValidationError(fmt.Sprintf("File too large: %d lines (max %d).", len(credentials), store.UploadMaxLines))
		}

		inserted, err := stocks.BulkInsert(context.Background(), service, credentials)
		if err != nil {
			return err
		}

		invalidateCounts(cache, log)

		log.Info("stock uploaded",
			slog.String("service", service),
			slog.Int("inserted", inserted),
			slog.String("file", doc.FileName),
		)

		if tasks != nil && broadcaster != nil {
			notice := fmt.Sprintf("📢 Stock updated! %s is available now.", service)
			tasks.Go("restock-notice", func(ctx context.Context) {
				if _, err := broadcaster.Broadcast(ctx, notice); err != nil {
					log.Error("restock notice failed", slog.Any("error", err))
				}
			})
		}

		return c.Send(fmt.Sprintf("✅ Uploaded %d stock for %s.\n📢 Sending notifications to users...", inserted, service))
	}
}
