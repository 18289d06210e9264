package alert

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-guardian/backend/internal/model/contact"
)

type recordingNotifier struct {
	mu    sync.Mutex
	items []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, n)
	return nil
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

func TestDispatchNotifiesEveryContact(t *testing.T) {
	sink := &recordingNotifier{}
	d := NewDispatcher(contact.NewMemoryStore(contact.Seed()), sink, nil, zerolog.Nop())

	got := d.Dispatch(context.Background(), ReasonCodeWord, "call-1")

	require.Len(t, got.Notifications, 2)
	assert.Equal(t, DefaultLocation, got.Location)
	assert.Equal(t, "Got it! So anyway, have you seen any good movies lately? I've been wanting to catch up on some new releases.", got.Camouflage)

	sent := sink.all()
	require.Len(t, sent, 2)
	assert.Equal(t, "Alert sent to Mom", sent[0].Title)
	assert.Equal(t, "Code word detected: 123 Main St, New York, NY 10001", sent[0].Description)
	assert.Equal(t, "Alert sent to Best Friend", sent[1].Title)
	assert.Equal(t, "call-1", sent[1].SessionID)
	assert.Equal(t, ReasonCodeWord, sent[1].Reason)
}

func TestDispatchDistressUsesDistressLabelAndLocator(t *testing.T) {
	sink := &recordingNotifier{}
	d := NewDispatcher(contact.NewMemoryStore(contact.Seed()), sink, StaticLocator("Pier 39"), zerolog.Nop())

	got := d.Dispatch(context.Background(), ReasonDistress, "call-2")

	assert.Equal(t, "I hear you. By the way, speaking of that, have you been doing anything fun this week? Any plans coming up?", got.Camouflage)
	for _, n := range sink.all() {
		assert.Equal(t, "Distress detected: Pier 39", n.Description)
	}
}

func TestDispatchWithoutContactsStillReturnsCamouflage(t *testing.T) {
	sink := &recordingNotifier{}
	d := NewDispatcher(contact.NewMemoryStore(nil), sink, nil, zerolog.Nop())

	got := d.Dispatch(context.Background(), ReasonDistress, "call-3")

	assert.Empty(t, got.Notifications)
	assert.NotEmpty(t, got.Camouflage)
	assert.Empty(t, sink.all())
}

func TestDispatchSwallowsSinkErrors(t *testing.T) {
	failing := NotifierFunc(func(context.Context, Notification) error {
		return errors.New("sms gateway down")
	})
	d := NewDispatcher(contact.NewMemoryStore(contact.Seed()), failing, nil, zerolog.Nop())

	got := d.Dispatch(context.Background(), ReasonCodeWord, "call-4")

	assert.Empty(t, got.Notifications)
	assert.Equal(t, ReasonCodeWord.Camouflage(), got.Camouflage)
}

func TestMultiFansOutAndJoinsErrors(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	boom := errors.New("boom")
	m := Multi{a, nil, NotifierFunc(func(context.Context, Notification) error { return boom }), b}

	err := m.Notify(context.Background(), Notification{Title: "x"})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.all(), 1)
	assert.Len(t, b.all(), 1)
}

type fakePublisher struct {
	mu     sync.Mutex
	bodies [][]byte
	block  chan struct{}
	closed bool
}

func (f *fakePublisher) Publish(_ context.Context, body []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bodies)
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := NewAMQPNotifier(pub, 4, zerolog.Nop())

	require.NoError(t, n.Notify(context.Background(), Notification{Title: "Alert sent to Mom", Reason: ReasonCodeWord, SessionID: "s1"}))
	require.NoError(t, n.Close())

	require.Equal(t, 1, pub.count())
	var decoded Notification
	require.NoError(t, json.Unmarshal(pub.bodies[0], &decoded))
	assert.Equal(t, "Alert sent to Mom", decoded.Title)
	assert.Equal(t, ReasonCodeWord, decoded.Reason)
	assert.True(t, pub.closed)
}

func TestAMQPNotifierDropsWhenFull(t *testing.T) {
	pub := &fakePublisher{block: make(chan struct{})}
	n := NewAMQPNotifier(pub, 1, zerolog.Nop())

	// The worker takes the first item and blocks on it; the second fills the buffer.
	require.NoError(t, n.Notify(context.Background(), Notification{Title: "1"}))
	require.Eventually(t, func() bool { return len(n.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, n.Notify(context.Background(), Notification{Title: "2"}))
	require.NoError(t, n.Notify(context.Background(), Notification{Title: "3"}))

	close(pub.block)
	require.NoError(t, n.Close())
	assert.Equal(t, 2, pub.count())
}

func TestAMQPNotifierRejectsAfterClose(t *testing.T) {
	n := NewAMQPNotifier(&fakePublisher{}, 1, zerolog.Nop())
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())

	assert.ErrorIs(t, n.Notify(context.Background(), Notification{}), ErrNotifierClosed)
}
