package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu       sync.Mutex
	sent     []int64
	failFor  map[int64]bool
	lastText string
}

func (s *fakeSender) Send(ctx context.Context, userID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failFor[userID] {
		return errors.New("forbidden: bot was blocked by the user")
	}

	s.sent = append(s.sent, userID)
	s.lastText = text
	return nil
}

type fakeRecipients struct {
	ids []int64
	err error
}

func (r *fakeRecipients) ListIDs(ctx context.Context) ([]int64, error) {
	return r.ids, r.err
}

func TestBroadcastCountsSentAndFailed(t *testing.T) {
	sender := &fakeSender{failFor: map[int64]bool{2: true}}
	recipients := &fakeRecipients{ids: []int64{1, 2, 3}}
	d := NewDispatcher(sender, recipients, Config{}, nil)

	result, err := d.Broadcast(context.Background(), "hello everyone")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []int64{1, 3}, sender.sent)
	assert.Equal(t, "hello everyone", sender.lastText)
}

func TestBroadcastEmptyAudience(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, &fakeRecipients{}, Config{}, nil)

	result, err := d.Broadcast(context.Background(), "hello")
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Zero(t, result.Failed)
}

func TestBroadcastRecipientListFailure(t *testing.T) {
	recipients := &fakeRecipients{err: errors.New("db down")}
	d := NewDispatcher(&fakeSender{}, recipients, Config{}, nil)

	_, err := d.Broadcast(context.Background(), "hello")
	assert.Error(t, err)
}

func TestBroadcastStopsOnCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	recipients := &fakeRecipients{ids: []int64{1, 2, 3}}
	d := NewDispatcher(sender, recipients, Config{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.Broadcast(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Sent)
}

func TestUpdateConfigKeepsSendTimeoutPositive(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, &fakeRecipients{}, Config{}, nil)
	d.UpdateConfig(Config{})

	assert.Positive(t, d.config().SendTimeout)
}
