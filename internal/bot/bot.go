package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/handlers"
	"mailstore-bot/internal/bot/keyboard"
	"mailstore-bot/internal/broadcast"
	errors "mailstore-bot/internal/errors"
	"mailstore-bot/internal/flow"
	"mailstore-bot/internal/idempotency"
	"mailstore-bot/internal/ledger"
	"mailstore-bot/internal/middleware"
	"mailstore-bot/internal/repository"
	"mailstore-bot/internal/stockcache"
	"mailstore-bot/pkg/config"
)

// Dependencies carries everything the bot needs besides the telegram transport.
type Dependencies struct {
	Users    repository.UserRepository
	Stocks   repository.StockRepository
	Deposits repository.DepositRepository
	Settings repository.SettingsRepository
	Ledger   repository.LedgerRepository

	Tracker    *flow.Tracker
	Guard      idempotency.Guard
	RateLimit  *middleware.RateLimitMiddleware
	StockCache *stockcache.Cache
	Tasks      handlers.TaskRunner
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	keyboard   *keyboard.Builder
	errHandler *errors.Handler
	dispatcher *broadcast.Dispatcher
	engine     *ledger.Engine
	deps       Dependencies
}

// New builds a telegram bot instance configured according to the application settings.
func New(cfg config.Config, log *slog.Logger, deps Dependencies) (*Bot, error) {
	settings := telebot.Settings{
		Token:     cfg.Bot.Token,
		ParseMode: telebot.ModeHTML,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	msg := &messenger{tb: tb}
	kb := keyboard.NewBuilder(cfg.Store, log)
	flows := handlers.NewFlowRouter(deps.Tracker, log)
	router := NewRouter(flows, log)
	errHandler := errors.NewHandler(log, cfg.Sentry.Enabled)
	dispatcher := broadcast.NewDispatcher(msg, deps.Users, broadcast.Config{
		SendTimeout: cfg.Broadcast.SendTimeout,
		Pace:        cfg.Broadcast.Pace,
	}, log)
	engine := ledger.NewEngine(deps.Ledger, cfg.Store, msg, log)

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     router,
		keyboard:   kb,
		errHandler: errHandler,
		dispatcher: dispatcher,
		engine:     engine,
		deps:       deps,
	}

	b.setupRouter(flows)

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

// Dispatcher exposes the broadcast dispatcher for config hot reload.
func (b *Bot) Dispatcher() *broadcast.Dispatcher {
	return b.dispatcher
}

func (b *Bot) setupRouter(flows *handlers.FlowRouter) {
	adminID := b.cfg.Bot.AdminID
	store := b.cfg.Store
	kb := b.keyboard
	log := b.log

	b.router.Use(RecoveryMiddleware(log, b.errHandler))
	b.router.Use(middleware.Dedup(b.deps.Guard, log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(log))
	b.router.Use(UpsertMiddleware(b.deps.Users, log))
	b.router.Use(middleware.Metrics)

	// Storefront.
	b.router.RegisterCommand(CommandStart, handlers.NewStartHandler(adminID, log))
	b.router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(b.deps.Tracker, adminID, log))
	b.router.RegisterCommand(keyboard.ButtonGetMail, handlers.NewCatalogHandler(store, b.deps.Stocks, b.deps.StockCache, kb, log))
	b.router.RegisterCommand(keyboard.ButtonInbox, handlers.NewInboxHandler(kb))
	b.router.RegisterCommand(keyboard.ButtonBalance, handlers.NewBalanceHandler(b.deps.Users, log))
	b.router.RegisterCommand(keyboard.ButtonDeposit, handlers.NewDepositMenuHandler(store, kb))
	b.router.RegisterCommand(keyboard.ButtonSupport, handlers.NewSupportHandler(b.deps.Settings, kb, log))
	b.router.RegisterCommand(keyboard.ButtonTutorial, handlers.NewTutorialHandler(b.deps.Settings, kb, log))

	b.router.RegisterCallback(keyboard.UniqueBuy, handlers.NewBuyHandler(b.engine, b.deps.StockCache, log))
	b.router.RegisterCallback(keyboard.UniqueMulti, handlers.NewMultiHandler(kb))
	b.router.RegisterCallback(keyboard.UniqueMultiService, handlers.NewMultiServiceHandler(b.deps.Tracker, log))
	b.router.RegisterCallback(keyboard.UniqueDeposit, handlers.NewDepositMethodHandler(b.deps.Tracker, store, log))
	b.router.RegisterCallback(keyboard.UniqueInbox, handlers.NewInboxLinkHandler())

	// Admin surface.
	b.router.RegisterCommand(keyboard.ButtonAdminPanel, adminOnly(adminID, handlers.NewAdminPanelHandler(kb)))
	b.router.RegisterCommand(CommandUsers, adminOnly(adminID, handlers.NewUsersCountHandler(b.deps.Users)))
	b.router.RegisterCommand(CommandAddBal, adminOnly(adminID, handlers.NewBalanceAdjustHandler(b.deps.Users, repository.BalanceAdd, CommandAddBal)))
	b.router.RegisterCommand(CommandSetBal, adminOnly(adminID, handlers.NewBalanceAdjustHandler(b.deps.Users, repository.BalanceSet, CommandSetBal)))
	b.router.RegisterCommand(CommandDelBal, adminOnly(adminID, handlers.NewBalanceAdjustHandler(b.deps.Users, repository.BalanceSubtract, CommandDelBal)))
	b.router.RegisterCommand(telebot.OnDocument, handlers.NewStockUploadHandler(adminID, store, b.deps.Stocks, b.deps.StockCache, b.deps.Tasks, b.dispatcher, log))

	b.router.RegisterCallback(keyboard.UniqueApprove, adminCallback(adminID, handlers.NewDepositDecisionHandler(b.engine, ledger.DecisionApprove, log)))
	b.router.RegisterCallback(keyboard.UniqueReject, adminCallback(adminID, handlers.NewDepositDecisionHandler(b.engine, ledger.DecisionReject, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminStock, adminCallback(adminID, handlers.NewUploadPromptHandler()))
	b.router.RegisterCallback(keyboard.UniqueAdminRemoveStock, adminCallback(adminID, handlers.NewRemoveStockMenuHandler(kb)))
	b.router.RegisterCallback(keyboard.UniqueRemoveStock, adminCallback(adminID, handlers.NewRemoveStockHandler(b.deps.Stocks, b.deps.StockCache, b.deps.Tasks, b.dispatcher, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminDeposits, adminCallback(adminID, handlers.NewPendingDepositsHandler(b.deps.Deposits, kb, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminStats, adminCallback(adminID, handlers.NewStatsHandler(b.deps.Users, kb, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminUsers, adminCallback(adminID, handlers.NewActiveUsersHandler(b.deps.Users, kb, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminBalances, adminCallback(adminID, handlers.NewTopBalancesHandler(b.deps.Users, kb, log)))
	b.router.RegisterCallback(keyboard.UniqueAdminUserControl, adminCallback(adminID, handlers.NewBalanceControlHandler()))
	b.router.RegisterCallback(keyboard.UniqueAdminSetSupport, adminCallback(adminID, handlers.NewSetSupportPromptHandler(b.deps.Tracker)))
	b.router.RegisterCallback(keyboard.UniqueAdminSetTutorial, adminCallback(adminID, handlers.NewSetTutorialPromptHandler(b.deps.Tracker)))
	b.router.RegisterCallback(keyboard.UniqueAdminBroadcast, adminCallback(adminID, handlers.NewBroadcastPromptHandler(b.deps.Tracker)))
	b.router.RegisterCallback(keyboard.UniqueBackToAdminPanel, adminCallback(adminID, handlers.NewBackToAdminHandler(kb)))

	// Flow commits.
	flows.Finish(flow.KindDeposit, handlers.NewDepositFinisher(b.deps.Deposits, kb, adminID, log))
	flows.Finish(flow.KindMultiPurchase, handlers.NewMultiPurchaseFinisher(b.engine, store, b.deps.StockCache, log))
	flows.Finish(flow.KindBroadcast, handlers.NewBroadcastFinisher(b.dispatcher, b.deps.Tasks, log))
	flows.Finish(flow.KindSetSupport, handlers.NewSupportFinisher(b.deps.Settings))
	flows.Finish(flow.KindSetTutorial, handlers.NewTutorialFinisher(b.deps.Settings))

	b.router.SetDefault(func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}
		return c.Send("Use the menu buttons below 👇", keyboard.MainMenu(sender.ID == adminID))
	})
}

func (b *Bot) registerTelebotHandlers() {
	if b.telebot == nil || b.router == nil {
		return
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
	b.telebot.Handle(telebot.OnDocument, b.router.Route)
}

func adminOnly(adminID int64, h handlers.Handler) handlers.Handler {
	return handlers.AdminOnly(adminID, h)
}

func adminCallback(adminID int64, h handlers.CallbackHandler) handlers.CallbackHandler {
	return handlers.CallbackHandler(handlers.AdminOnly(adminID, handlers.Handler(h)))
}

// messenger adapts telebot to the ledger notifier and broadcast sender.
type messenger struct {
	tb *telebot.Bot
}

func (m *messenger) Send(ctx context.Context, userID int64, text string) error {
	_, err := m.tb.Send(&telebot.User{ID: userID}, text)
	if err != nil {
		return errors.NewDeliveryError(userID, err)
	}
	return nil
}

func (m *messenger) Notify(ctx context.Context, userID int64, text string) error {
	return m.Send(ctx, userID, text)
}
