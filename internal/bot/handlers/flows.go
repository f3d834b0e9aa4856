package handlers

import (
	"context"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"mailstore-bot/internal/broadcast"
	"mailstore-bot/internal/flow"
)

// Broadcaster fans a message out to all users.
type Broadcaster interface {
	Broadcast(ctx context.Context, text string) (broadcast.Result, error)
}

// TaskRunner launches supervised background work.
type TaskRunner interface {
	Go(name string, fn func(ctx context.Context))
}

// FlowFinisher commits a completed flow.
type FlowFinisher func(c telebot.Context, f *flow.Flow) error

// flowPrompts maps the next missing field to the message asking for it.
// Fields prompted at flow start (payment number, purchase count, broadcast
// text) are not listed; they are asked by the handler that begins the flow.
var flowPrompts = map[flow.Field]string{
	flow.FieldAmount: "💵 Enter deposit amount:",
	flow.FieldTxID:   "🔑 Enter transaction ID:",
}

// FlowRouter feeds free-text input into the sender's open flow and commits
// completed flows through their registered finisher.
type FlowRouter struct {
	tracker   *flow.Tracker
	finishers map[flow.Kind]FlowFinisher
	log       *slog.Logger
}

// NewFlowRouter constructs a FlowRouter over the tracker.
func NewFlowRouter(tracker *flow.Tracker, log *slog.Logger) *FlowRouter {
	if log == nil {
		log = slog.Default()
	}

	return &FlowRouter{
		tracker:   tracker,
		finishers: make(map[flow.Kind]FlowFinisher),
		log:       log,
	}
}

// Finish registers the finisher invoked when a flow of the given kind fills
// its last field.
func (r *FlowRouter) Finish(kind flow.Kind, fn FlowFinisher) {
	r.finishers[kind] = fn
}

// Handle offers the message text to the sender's open flows. It reports
// consumed=false when no flow wants the input so the router falls through to
// ordinary dispatch. Validation failures are returned with consumed=true for
// the error boundary to re-prompt.
func (r *FlowRouter) Handle(c telebot.Context) (bool, error) {
	sender := c.Sender()
	if sender == nil {
		return false, nil
	}

	ctx := context.Background()

	current, consumed, err := r.tracker.Advance(ctx, sender.ID, c.Text())
	if err != nil || !consumed {
		return consumed, err
	}

	if field, missing := current.Next(); missing {
		prompt, ok := flowPrompts[field]
		if !ok {
			r.log.Error("no prompt for flow field",
				slog.String("kind", string(current.Kind)),
				slog.String("field", string(field)),
			)
			return true, nil
		}
		return true, c.Send(prompt)
	}

	done, err := r.tracker.Complete(ctx, sender.ID, current.Kind)
	if err != nil {
		return true, err
	}

	finisher := r.finishers[done.Kind]
	if finisher == nil {
		r.log.Error("no finisher for flow kind", slog.String("kind", string(done.Kind)))
		return true, nil
	}

	return true, finisher(c, done)
}
