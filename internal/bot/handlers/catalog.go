package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/keyboard"
	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/flow"
	"mailstore-bot/internal/ledger"
	"mailstore-bot/internal/repository"
	"mailstore-bot/internal/stockcache"
	"mailstore-bot/pkg/config"
)

const stockCountsTTL = 30 * time.Second

// NewCatalogHandler renders the catalog with live stock counts.
func NewCatalogHandler(store config.StoreConfig, stocks repository.StockRepository, cache *stockcache.Cache, kb *keyboard.Builder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		counts, err := stockCounts(context.Background(), store, stocks, cache, log)
		if err != nil {
			return err
		}

		return c.Send("📧 Available Mail:", kb.Catalog(counts))
	}
}

// NewBuyHandler sells a single credential of the selected service.
func NewBuyHandler(engine *ledger.Engine, cache *stockcache.Cache, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		service := callbackPayload(c)
		defer respondCallback(c)

		purchase, err := engine.PurchaseStock(context.Background(), sender.ID, service, 1)
		if err != nil {
			return err
		}

		invalidateCounts(cache, log)

		return c.Send(fmt.Sprintf("✅ Purchase successful!\n\n<code>%s</code>", purchase.Credentials[0]))
	}
}

// NewMultiHandler shows the service picker for a multiple purchase.
func NewMultiHandler(kb *keyboard.Builder) CallbackHandler {
	return func(c telebot.Context) error {
		defer respondCallback(c)
		return c.Send("🛒 Select service for multiple purchase:", kb.MultiServices())
	}
}

// NewMultiServiceHandler opens the multi-purchase wizard for the selected
// service and asks for the quantity.
func NewMultiServiceHandler(tracker *flow.Tracker, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		service := callbackPayload(c)
		defer respondCallback(c)

		err := tracker.Begin(context.Background(), sender.ID, flow.KindMultiPurchase, map[flow.Field]string{
			flow.FieldService: service,
		})
		if err != nil {
			if errors.Is(err, flow.ErrFlowExists) {
				return c.Send("You already have a purchase in progress. Send /cancel to start over.")
			}
			return err
		}

		return c.Send("✍️ Enter how many mails you want:")
	}
}

// NewMultiPurchaseFinisher commits a filled multi-purchase wizard. Large
// orders are delivered as a text document instead of a chat message.
func NewMultiPurchaseFinisher(engine *ledger.Engine, store config.StoreConfig, cache *stockcache.Cache, log *slog.Logger) FlowFinisher {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context, f *flow.Flow) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		service := f.Get(flow.FieldService)
		count, err := strconv.Atoi(f.Get(flow.FieldCount))
		if err != nil {
			return apperrors.NewValidationError("Enter a valid number.")
		}

		purchase, err := engine.PurchaseStock(context.Background(), sender.ID, service, count)
		if err != nil {
			return err
		}

		invalidateCounts(cache, log)

		caption := fmt.Sprintf("✅ Purchased %d %s", purchase.Quantity, purchase.Service)

		if purchase.Quantity >= store.DocumentFrom {
			payload := strings.Join(purchase.Credentials, "\n")
			doc := &telebot.Document{
				File:     telebot.FromReader(strings.NewReader(payload)),
				FileName: fmt.Sprintf("%d_mails.txt", sender.ID),
				Caption:  caption,
			}
			return c.Send(doc)
		}

		lines := make([]string, 0, len(purchase.Credentials))
		for _, credential := range purchase.Credentials {
			lines = append(lines, fmt.Sprintf("<code>%s</code>", credential))
		}

		return c.Send(caption + "\n\n" + strings.Join(lines, "\n"))
	}
}

// stockCounts returns per-service availability, preferring the shared cache.
func stockCounts(ctx context.Context, store config.StoreConfig, stocks repository.StockRepository, cache *stockcache.Cache, log *slog.Logger) (map[string]int64, error) {
	if cache != nil {
		counts, err := cache.Get(ctx)
		if err != nil {
			log.Warn("stock count cache read failed", slog.Any("error", err))
		}
		if counts != nil {
			return counts, nil
		}
	}

	counts := make(map[string]int64, len(store.Catalog))
	for _, service := range store.Services() {
		count, err := stocks.CountByService(ctx, service)
		if err != nil {
			return nil, err
		}
		counts[service] = int64(count)
	}

	if cache != nil {
		if err := cache.Set(ctx, counts, stockCountsTTL); err != nil {
			log.Warn("stock count cache write failed", slog.Any("error", err))
		}
	}

	return counts, nil
}

func invalidateCounts(cache *stockcache.Cache, log *slog.Logger) {
	if cache == nil {
		return
	}

	if err := cache.Invalidate(context.Background()); err != nil {
		log.Warn("stock count cache invalidation failed", slog.Any("error", err))
	}
}
