package handler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

var tripChat = types.NewJID("120363000000000000", types.GroupServer)

type nopRepo struct{}

func (nopRepo) LoadAll(ctx context.Context) ([]*models.Trip, error) { return nil, nil }
func (nopRepo) Upsert(ctx context.Context, trip *models.Trip) error { return nil }
func (nopRepo) Delete(ctx context.Context, tripID string) error     { return nil }
func (nopRepo) Subscribe(ctx context.Context, tripID string, onChange func(*models.Trip)) (func() error, error) {
	return func() error { return nil }, nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (m *fakeMessenger) SendMessage(ctx context.Context, chat, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, chat+": "+message)
	return nil
}

func newTestHandler(t *testing.T, withTrip bool) (*CommandHandler, *state.Dispatcher, *fakeMessenger) {
	t.Helper()
	n := 0
	d := state.NewDispatcher(state.NewStore(nil), nopRepo{}, &state.Config{
		NewID: func() string { n++; return fmt.Sprintf("id-%d", n) },
	})
	t.Cleanup(d.Wait)
	if withTrip {
		d.CreateTrip(state.NewTrip{ID: "t1", Title: "Lisbon", StartDate: "2024-05-01", Days: 2})
	}
	m := &fakeMessenger{}
	return NewCommandHandler(m, d, &Config{Chat: tripChat}), d, m
}

func message(chat types.JID, text string) *events.Message {
	msg := &events.Message{Message: &waE2E.Message{Conversation: &text}}
	msg.Info.Chat = chat
	return msg
}

func TestHandleCommandAddsPlanItems(t *testing.T) {
	h, d, _ := newTestHandler(t, true)

	assert.Equal(t, "✅ Added to Packing: sunscreen", h.HandleCommand("pack sunscreen"))
	assert.Equal(t, "✅ Added to Shopping: pastéis", h.HandleCommand("/buy  pastéis"))
	assert.Equal(t, "✅ Added to Todo: book tram tour", h.HandleCommand("TODO book tram tour"))

	trip, ok := d.Store().Trip("t1")
	require.True(t, ok)
	require.Len(t, trip.Plans, 3)
	assert.Equal(t, models.PlanPacking, trip.Plans[0].Category)
	assert.Equal(t, models.PriorityMedium, trip.Plans[0].Priority)
	assert.Equal(t, "pastéis", trip.Plans[1].Text)
}

func TestHandleCommandDoneAndList(t *testing.T) {
	h, d, _ := newTestHandler(t, true)
	h.HandleCommand("pack sunscreen")
	h.HandleCommand("buy water")

	assert.Equal(t, "✔️ Done: water", h.HandleCommand("done 2"))
	assert.Equal(t, "Pick a number between 1 and 2.", h.HandleCommand("done 3"))
	assert.Equal(t, "Pick a number between 1 and 2.", h.HandleCommand("done x"))

	trip, _ := d.Store().Trip("t1")
	assert.False(t, trip.Plans[0].Completed)
	assert.True(t, trip.Plans[1].Completed)

	assert.Equal(t, "📋 Lisbon\n1. ☐ sunscreen (Packing)\n2. ☑ water (Shopping)", h.HandleCommand("list"))
}

func TestHandleCommandDay(t *testing.T) {
	h, d, _ := newTestHandler(t, true)
	d.AddActivity("t1", 0, models.Activity{Time: "10:00", Location: "Belém"})
	d.AddActivity("t1", 0, models.Activity{Time: "08:30", Location: "Alfama"})

	assert.Equal(t, "📅 Day 1 (2024-05-01)\n08:30 Alfama\n10:00 Belém", h.HandleCommand("day 1"))
	assert.Equal(t, "📅 Day 2 (2024-05-02)\nNothing planned.", h.HandleCommand("day 2"))
	assert.Equal(t, "Pick a day between 1 and 2.", h.HandleCommand("day 5"))
}

func TestHandleCommandWithoutActiveTrip(t *testing.T) {
	h, _, _ := newTestHandler(t, false)

	assert.Equal(t, "No trip selected yet.", h.HandleCommand("list"))
	assert.Empty(t, h.HandleCommand("see you at the airport"))
}

func TestHandleCommandIgnoresChatter(t *testing.T) {
	h, d, _ := newTestHandler(t, true)

	assert.Empty(t, h.HandleCommand("who packed the charger?"))
	assert.Equal(t, "Usage: pack <text>", h.HandleCommand("pack"))
	trip, _ := d.Store().Trip("t1")
	assert.Empty(t, trip.Plans)
}

func TestHandleMessageRepliesOnlyInTripChat(t *testing.T) {
	h, _, m := newTestHandler(t, true)
	group := types.NewJID("120363000000000000", types.GroupServer)
	other := types.NewJID("972541234567", types.DefaultUserServer)

	require.NoError(t, h.HandleMessage(message(other, "pack socks")))
	assert.Empty(t, m.sent)

	require.NoError(t, h.HandleMessage(message(group, "pack socks")))
	require.NoError(t, h.HandleMessage(message(group, "nice")))
	require.NoError(t, h.HandleMessage(&events.Message{}))
	assert.Equal(t, []string{tripChat.String() + ": ✅ Added to Packing: socks"}, m.sent)
}

func TestHandleMessageMatchesDirectChatByNumber(t *testing.T) {
	_, d, m := newTestHandler(t, true)
	h := NewCommandHandler(m, d, &Config{Chat: types.NewJID("351912345678", types.DefaultUserServer)})

	fromPhone := types.JID{User: "351912345678", Device: 3, Server: types.DefaultUserServer}
	require.NoError(t, h.HandleMessage(message(fromPhone, "buy sunscreen")))
	require.NoError(t, h.HandleMessage(message(tripChat, "buy hats")))

	assert.Equal(t, []string{"351912345678@s.whatsapp.net: ✅ Added to Shopping: sunscreen"}, m.sent)
}
