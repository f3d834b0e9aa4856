package keyboard

import (
	"fmt"
	"log/slog"
	"strconv"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/domain"
	"mailstore-bot/pkg/config"
)

// Callback uniques shared between keyboards and the router registrations.
const (
	UniqueBuy          = "buy"
	UniqueMulti        = "multi"
	UniqueMultiService = "multisvc"
	UniqueDeposit      = "dep"
	UniqueApprove      = "approve"
	UniqueReject       = "reject"
	UniqueRemoveStock  = "rem"
	UniqueInbox        = "inbox"

	UniqueAdminStock        = "admin_stock"
	UniqueAdminRemoveStock  = "admin_removestock"
	UniqueAdminDeposits     = "admin_deposits"
	UniqueAdminStats        = "admin_stats"
	UniqueAdminUsers        = "admin_users"
	UniqueAdminBalances     = "admin_userbalances"
	UniqueAdminUserControl  = "admin_usercontrol"
	UniqueAdminSetSupport   = "admin_support"
	UniqueAdminSetTutorial  = "admin_tutorial"
	UniqueAdminBroadcast    = "admin_broadcast"
	UniqueBackToAdminPanel  = "back_admin"
)

// Builder creates the storefront keyboards.
type Builder struct {
	store config.StoreConfig
	log   *slog.Logger
}

// NewBuilder returns a new Builder instance.
func NewBuilder(store config.StoreConfig, log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}

	return &Builder{store: store, log: log}
}

// Catalog lists every catalog service with its price and live stock count,
// plus the multiple-purchase entry.
func (b *Builder) Catalog(counts map[string]int64) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()

	for _, service := range b.store.Services() {
		price, _ := b.store.Price(service)
		kb.AddRow(InlineButton{
			Text:   fmt.Sprintf("%s | %s | Stock: %d", service, domain.FormatAmount(price), counts[service]),
			Unique: UniqueBuy,
			Data:   service,
		})
	}

	kb.AddRow(InlineButton{Text: "🛒 Multiple Purchase", Unique: UniqueMulti})

	return kb.Build(b.encode)
}

// MultiServices lists catalog services for a multiple purchase.
func (b *Builder) MultiServices() *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, service := range b.store.Services() {
		kb.AddRow(InlineButton{Text: service, Unique: UniqueMultiService, Data: service})
	}

	return kb.Build(b.encode)
}

// PaymentMethods lists the supported deposit methods.
func (b *Builder) PaymentMethods() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "📲 bKash", Unique: UniqueDeposit, Data: "bkash"}).
		AddRow(InlineButton{Text: "📲 Nagad", Unique: UniqueDeposit, Data: "nagad"}).
		Build(b.encode)
}

// InboxMenu lists the inbox checkers per mail provider.
func (b *Builder) InboxMenu() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "📧 Gmail Inbox", Unique: UniqueInbox, Data: "gmail"}).
		AddRow(InlineButton{Text: "📧 Hotmail Inbox", Unique: UniqueInbox, Data: "hotmail"}).
		AddRow(InlineButton{Text: "📧 Outlook Inbox", Unique: UniqueInbox, Data: "outlook"}).
		Build(b.encode)
}

// AdminPanel builds the administrator action menu.
func (b *Builder) AdminPanel() *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "📂 Upload Stock", Unique: UniqueAdminStock}).
		AddRow(InlineButton{Text: "🗑 Remove Stock", Unique: UniqueAdminRemoveStock}).
		AddRow(InlineButton{Text: "📂 Pending Deposits", Unique: UniqueAdminDeposits}).
		AddRow(InlineButton{Text: "📊 Bot Statistics Dashboard", Unique: UniqueAdminStats}).
		AddRow(InlineButton{Text: "👥 Active Users (Realtime)", Unique: UniqueAdminUsers}).
		AddRow(InlineButton{Text: "👥 User List", Unique: UniqueAdminBalances}).
		AddRow(InlineButton{Text: "⚡ Balance Control", Unique: UniqueAdminUserControl}).
		AddRow(InlineButton{Text: "🆘 Set Support", Unique: UniqueAdminSetSupport}).
		AddRow(InlineButton{Text: "📚 Set Tutorial", Unique: UniqueAdminSetTutorial}).
		AddRow(InlineButton{Text: "📣 Broadcast", Unique: UniqueAdminBroadcast}).
		Build(b.encode)
}

// RemoveStockServices lists catalog services whose stock can be cleared.
func (b *Builder) RemoveStockServices() *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	for _, service := range b.store.Services() {
		kb.AddRow(InlineButton{Text: service, Unique: UniqueRemoveStock, Data: service})
	}

	return kb.Build(b.encode)
}

// DepositDecision builds approve/reject buttons for a pending deposit.
func (b *Builder) DepositDecision(depositID int64) *telebot.ReplyMarkup {
	id := strconv.FormatInt(depositID, 10)

	return NewInlineKeyboard().
		AddRow(
			InlineButton{Text: "✅ Approve", Unique: UniqueApprove, Data: id},
			InlineButton{Text: "❌ Reject", Unique: UniqueReject, Data: id},
		).
		Build(b.encode)
}

// AdminRefresh builds the refresh/back row under admin dashboards.
func (b *Builder) AdminRefresh(unique string) *telebot.ReplyMarkup {
	return NewInlineKeyboard().
		AddRow(InlineButton{Text: "🔄 Refresh", Unique: unique}).
		AddRow(InlineButton{Text: "⬅️ Back to Admin Panel", Unique: UniqueBackToAdminPanel}).
		Build(b.encode)
}

// ListPage builds pagination controls under a paginated admin listing.
func (b *Builder) ListPage(unique string, page, totalPages int) *telebot.ReplyMarkup {
	kb := NewInlineKeyboard()
	if row := PaginationButtons(unique, page, totalPages); len(row) > 0 {
		kb.AddRow(row...)
	}
	kb.AddRow(InlineButton{Text: "⬅️ Back to Admin Panel", Unique: UniqueBackToAdminPanel})

	return kb.Build(b.encode)
}

// URLButton builds a single external link button.
func (b *Builder) URLButton(text, url string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{}
	markup.InlineKeyboard = [][]telebot.InlineButton{{{Text: text, URL: url}}}
	return markup
}

// encode renders callback payloads, logging oversized data instead of
// emitting a button Telegram would reject.
func (b *Builder) encode(unique, data string) string {
	payload, err := EncodeCallback(unique, data)
	if err != nil {
		b.log.Error("callback payload dropped", slog.String("unique", unique), slog.Any("error", err))
		return unique
	}

	return payload
}
