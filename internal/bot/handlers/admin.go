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
	"mailstore-bot/internal/domain"
	apperrors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/flow"
	"mailstore-bot/internal/repository"
)

const (
	pendingDepositsLimit = 10
	balancesPerPage      = 20
	balancesLimit        = 200
)

// storeTime is the timezone the admin dashboards display, matching the
// store's customer base.
var storeTime = mustLoadLocation("Asia/Dhaka")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AdminOnly drops updates from anyone but the configured administrator.
func AdminOnly(adminID int64, next Handler) Handler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil || sender.ID != adminID {
			return nil
		}
		return next(c)
	}
}

// NewAdminPanelHandler shows the admin action menu.
func NewAdminPanelHandler(kb *keyboard.Builder) Handler {
	return func(c telebot.Context) error {
		return c.Send("⚙️ Admin Panel ⚙️", kb.AdminPanel())
	}
}

// NewBackToAdminHandler returns a dashboard message to the admin panel.
func NewBackToAdminHandler(kb *keyboard.Builder) CallbackHandler {
	return func(c telebot.Context) error {
		defer respondCallback(c)
		return editOrSend(c, "⚙️ Admin Panel ⚙️", kb.AdminPanel())
	}
}

// NewUploadPromptHandler explains the stock upload format.
func NewUploadPromptHandler() CallbackHandler {
	return func(c telebot.Context) error {
		defer respondCallback(c)
		return c.Send("📂 Send a TXT/CSV/XLSX file.\nCaption must be the service name (e.g. Gmail (6-12 Hours)).")
	}
}

// NewRemoveStockMenuHandler shows the per-service stock removal picker.
func NewRemoveStockMenuHandler(kb *keyboard.Builder) CallbackHandler {
	return func(c telebot.Context) error {
		defer respondCallback(c)
		return c.Send("🗑 Select product to clear stock:", kb.RemoveStockServices())
	}
}

// NewRemoveStockHandler clears all stock of a service and announces the
// removal to every user in the background.
func NewRemoveStockHandler(stocks repository.StockRepository, cache interface{ Invalidate(context.Context) error }, tasks TaskRunner, broadcaster Broadcaster, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		service := callbackPayload(c)
		defer respondCallback(c)

		removed, err := stocks.DeleteService(context.Background(), service)
		if err != nil {
			return err
		}

		if cache != nil {
			if err := cache.Invalidate(context.Background()); err != nil {
				log.Warn("stock count cache invalidation failed", slog.Any("error", err))
			}
		}

		if tasks != nil && broadcaster != nil {
			notice := fmt.Sprintf("📢 Notice: all stock has been cleared - %s.", service)
			tasks.Go("stock-removal-notice", func(ctx context.Context) {
				if _, err := broadcaster.Broadcast(ctx, notice); err != nil {
					log.Error("stock removal notice failed", slog.Any("error", err))
				}
			})
		}

		return c.Send(fmt.Sprintf("🗑 All stock removed for %s (%d items).", service, removed))
	}
}

// NewPendingDepositsHandler lists recent deposits, attaching decision buttons
// to the ones still pending.
func NewPendingDepositsHandler(deposits repository.DepositRepository, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer respondCallback(c)

		recent, err := deposits.ListRecent(context.Background(), pendingDepositsLimit)
		if err != nil {
			return err
		}

		if len(recent) == 0 {
			return c.Send("✅ No deposits found.")
		}

		for _, deposit := range recent {
			text := fmt.Sprintf(
				"🆔 Deposit ID: %d\n👤 UserID: %d\n💳 Method: %s\n📞 Number: %s\n💵 Amount: %s\n🔑 TxID: %s\nStatus: %s",
				deposit.ID, deposit.UserID, deposit.Method, deposit.SenderNumber,
				domain.FormatAmount(deposit.Amount), deposit.TxID, deposit.Status,
			)

			var sendErr error
			if deposit.Status == domain.DepositPending {
				sendErr = c.Send(text, kb.DepositDecision(deposit.ID))
			} else {
				sendErr = c.Send(text)
			}
			if sendErr != nil {
				return sendErr
			}
		}

		return nil
	}
}

// NewTopBalancesHandler shows the user list ordered by balance, paginated.
func NewTopBalancesHandler(users repository.UserRepository, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer respondCallback(c)

		page := 1
		if payload := callbackPayload(c); payload != "" {
			if parsed, err := strconv.Atoi(payload); err == nil && parsed > 0 {
				page = parsed
			}
		}

		top, err := users.TopByBalance(context.Background(), balancesLimit)
		if err != nil {
			return err
		}

		if len(top) == 0 {
			return c.Send("No users found.")
		}

		totalPages := (len(top) + balancesPerPage - 1) / balancesPerPage
		if page > totalPages {
			page = totalPages
		}

		start := (page - 1) * balancesPerPage
		end := start + balancesPerPage
		if end > len(top) {
			end = len(top)
		}

		var b strings.Builder
		b.WriteString("👥 Top Users (by balance):\n\n")
		for _, user := range top[start:end] {
			fmt.Fprintf(&b, "@%s (%d) - %s\n", user.Username, user.TelegramID, domain.FormatAmount(user.Balance))
		}

		return editOrSend(c, b.String(), kb.ListPage(keyboard.UniqueAdminBalances, page, totalPages))
	}
}

// NewActiveUsersHandler shows realtime activity buckets with a refresh button.
func NewActiveUsersHandler(users repository.UserRepository, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer respondCallback(c)

		stats, err := users.ActivityStats(context.Background(), time.Now().UTC())
		if err != nil {
			return err
		}

		text := fmt.Sprintf(
			"👥 Active Users (Realtime)\n\nTotal Users: %d\nNew Today: %d\n🟢 Online (≤5m): %d\n🟡 Active (≤15m): %d\n🔵 Active (≤60m): %d",
			stats.Total, stats.NewToday, stats.Online, stats.Active15, stats.Active60,
		)

		return editOrSend(c, text, kb.AdminRefresh(keyboard.UniqueAdminUsers))
	}
}

// NewStatsHandler shows the statistics dashboard with a refresh button.
func NewStatsHandler(users repository.UserRepository, kb *keyboard.Builder, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		defer respondCallback(c)

		stats, err := users.ActivityStats(context.Background(), time.Now().UTC())
		if err != nil {
			return err
		}

		now := time.Now().In(storeTime)
		text := fmt.Sprintf(
			"🏹 BOT STATISTICS DASHBOARD 🏹\n🕒 Current Time: %s\n📅 Date: %s\n——————————————\n👥 USER STATISTICS\nTotal users: %d\nNew Today: %d",
			now.Format("03:04:05 PM"), now.Format("2006-01-02"),
			stats.Total, stats.NewToday,
		)

		return editOrSend(c, text, kb.AdminRefresh(keyboard.UniqueAdminStats))
	}
}

// NewBalanceControlHandler explains the direct balance adjustment commands.
func NewBalanceControlHandler() CallbackHandler {
	return func(c telebot.Context) error {
		defer respondCallback(c)
		return c.Send("⚡ Balance Control\n\n/addbal user_id amount — add to balance\n/setbal user_id amount — set balance\n/delbal user_id amount — subtract from balance")
	}
}

// NewSetSupportPromptHandler opens the support-contact flow.
func NewSetSupportPromptHandler(tracker *flow.Tracker) CallbackHandler {
	return newAdminTextPrompt(tracker, flow.KindSetSupport, "✍️ Send new support username (without @)")
}

// NewSetTutorialPromptHandler opens the tutorial-link flow.
func NewSetTutorialPromptHandler(tracker *flow.Tracker) CallbackHandler {
	return newAdminTextPrompt(tracker, flow.KindSetTutorial, "✍️ Send new tutorial link (http:// or https://)")
}

// NewBroadcastPromptHandler opens the broadcast flow. The next message the
// admin sends becomes the broadcast text.
func NewBroadcastPromptHandler(tracker *flow.Tracker) CallbackHandler {
	return newAdminTextPrompt(tracker, flow.KindBroadcast, "✍️ Send the message you want to broadcast to ALL users.\n\n(Tip: plain text only.)")
}

func newAdminTextPrompt(tracker *flow.Tracker, kind flow.Kind, prompt string) CallbackHandler {
	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		defer respondCallback(c)

		err := tracker.Begin(context.Background(), sender.ID, kind, nil)
		if err != nil {
			if errors.Is(err, flow.ErrFlowExists) {
				return c.Send("Another input is already pending. Send /cancel to start over.")
			}
			return err
		}

		return c.Send(prompt)
	}
}

// NewSupportFinisher stores the new support contact.
func NewSupportFinisher(settings repository.SettingsRepository) FlowFinisher {
	return func(c telebot.Context, f *flow.Flow) error {
		username := strings.TrimSpace(strings.TrimPrefix(f.Get(flow.FieldValue), "@"))
		if username == "" {
			return apperrors.NewValidationError("Support username cannot be empty.")
		}

		if err := settings.Put(context.Background(), repository.KeySupportUsername, username); err != nil {
			return err
		}

		return c.Send("✅ Support username updated.")
	}
}

// NewTutorialFinisher stores the new tutorial link.
func NewTutorialFinisher(settings repository.SettingsRepository) FlowFinisher {
	return func(c telebot.Context, f *flow.Flow) error {
		link := strings.TrimSpace(f.Get(flow.FieldValue))
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return apperrors.NewValidationError("Send a link starting with http:// or https://.")
		}

		if err := settings.Put(context.Background(), repository.KeyTutorialLink, link); err != nil {
			return err
		}

		return c.Send("✅ Tutorial link updated.")
	}
}

// NewBroadcastFinisher launches the broadcast in the background and reports
// the outcome to the admin when it finishes.
func NewBroadcastFinisher(broadcaster Broadcaster, tasks TaskRunner, log *slog.Logger) FlowFinisher {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context, f *flow.Flow) error {
		text := f.Get(flow.FieldValue)
		bot := c.Bot()
		adminChat := c.Chat()

		tasks.Go("broadcast", func(ctx context.Context) {
			result, err := broadcaster.Broadcast(ctx, "📣 Broadcast from Admin:\n\n"+text)
			if err != nil {
				log.Error("broadcast aborted", slog.Any("error", err))
			}

			if bot == nil || adminChat == nil {
				return
			}

			summary := fmt.Sprintf("✅ Broadcast finished. Sent: %d, Failed: %d", result.Sent, result.Failed)
			if _, err := bot.Send(adminChat, summary); err != nil {
				log.Error("failed to report broadcast outcome", slog.Any("error", err))
			}
		})

		return c.Send("📣 Broadcast started. Sending to all users...")
	}
}
