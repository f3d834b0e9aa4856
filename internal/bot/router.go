package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/bot/handlers"
	"mailstore-bot/internal/bot/keyboard"
)

// Router dispatches commands, menu buttons, callbacks, and flow input.
type Router struct {
	mu             sync.RWMutex
	commands       map[string]handlers.Handler
	callbacks      map[string]handlers.CallbackHandler
	flows          *handlers.FlowRouter
	defaultHandler handlers.Handler
	middlewares    []handlers.Middleware
	log            *slog.Logger
}

// NewRouter builds a Router with empty registries.
func NewRouter(flows *handlers.FlowRouter, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands:    make(map[string]handlers.Handler),
		callbacks:   make(map[string]handlers.CallbackHandler),
		flows:       flows,
		middlewares: make([]handlers.Middleware, 0),
		log:         log,
	}
}

// RegisterCommand registers a handler for a slash command or an exact
// reply-keyboard button text.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd] = h
}

// RegisterCallback registers a handler for the given callback unique.
func (r *Router) RegisterCallback(unique string, h handlers.CallbackHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[unique] = h
}

// Use appends a middleware to the chain.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the fallback handler for unmatched messages.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHandler = h
}

// Route directs the incoming update to the appropriate handler.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	if callback := c.Callback(); callback != nil {
		return r.handleCallback(c, callback.Data)
	}

	if c.Message() != nil && c.Message().Document != nil {
		return r.handleDocument(c)
	}

	return r.handleMessage(c)
}

func (r *Router) handleCallback(c telebot.Context, data string) error {
	unique, _, err := keyboard.DecodeCallback(strings.TrimPrefix(data, "\f"))
	if err != nil {
		r.log.Info("undecodable callback data", slog.String("data", data))
		return nil
	}

	handler := r.getCallbackHandler(unique)
	if handler == nil {
		r.log.Info("no callback handler found", slog.String("unique", unique))
		return nil
	}

	return r.executeHandler(handlers.Handler(handler), c)
}

func (r *Router) handleDocument(c telebot.Context) error {
	handler := r.getCommandHandler(telebot.OnDocument)
	if handler == nil {
		return nil
	}

	return r.executeHandler(handler, c)
}

func (r *Router) handleMessage(c telebot.Context) error {
	text := c.Text()

	// Slash commands interrupt flows; any argument after the command is
	// preserved in c.Text() for the handler itself.
	if strings.HasPrefix(text, "/") {
		if handler := r.getCommandHandler(commandWord(text)); handler != nil {
			return r.executeHandler(handler, c)
		}
	}

	if handler := r.getCommandHandler(text); handler != nil {
		return r.executeHandler(handler, c)
	}

	// Free text goes to the sender's open flow before falling through.
	if r.flows != nil {
		var consumed bool
		err := r.executeHandler(func(ctx telebot.Context) error {
			var ferr error
			consumed, ferr = r.flows.Handle(ctx)
			return ferr
		}, c)
		if err != nil || consumed {
			return err
		}
	}

	if handler := r.getDefaultHandler(); handler != nil {
		return r.executeHandler(handler, c)
	}

	return nil
}

// commandWord strips the bot mention and arguments from a command message.
func commandWord(text string) string {
	if i := strings.IndexAny(text, " \n"); i >= 0 {
		text = text[:i]
	}
	if i := strings.Index(text, "@"); i >= 0 {
		text = text[:i]
	}

	return text
}

func (r *Router) executeHandler(h handlers.Handler, c telebot.Context) error {
	wrapped := r.applyMiddlewares(h)
	if wrapped == nil {
		return nil
	}
	return wrapped(c)
}

func (r *Router) getCallbackHandler(unique string) handlers.CallbackHandler {
	r.mu.RLock()
	handler := r.callbacks[unique]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getCommandHandler(cmd string) handlers.Handler {
	r.mu.RLock()
	handler := r.commands[cmd]
	r.mu.RUnlock()
	return handler
}

func (r *Router) getDefaultHandler() handlers.Handler {
	r.mu.RLock()
	handler := r.defaultHandler
	r.mu.RUnlock()
	return handler
}

// applyMiddlewares wraps the handler with all registered middlewares.
func (r *Router) applyMiddlewares(h handlers.Handler) handlers.Handler {
	if h == nil {
		return nil
	}

	middlewares := r.middlewaresSnapshot()
	wrapped := h
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}

	return wrapped
}

func (r *Router) middlewaresSnapshot() []handlers.Middleware {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.middlewares) == 0 {
		return nil
	}

	snapshot := make([]handlers.Middleware, len(r.middlewares))
	copy(snapshot, r.middlewares)
	return snapshot
}
