package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

// Messenger sends chat replies
type Messenger interface {
	SendMessage(ctx context.Context, chat, message string) error
}

// CommandHandler turns group chat messages into plan-item operations on the
// active trip
type CommandHandler struct {
	messenger  Messenger
	dispatcher *state.Dispatcher
	config     *Config
}

type Config struct {
	// Chat is the only conversation commands are accepted from. Device
	// suffixes are ignored when matching.
	Chat types.JID
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(messenger Messenger, dispatcher *state.Dispatcher, cfg *Config) *CommandHandler {
	return &CommandHandler{
		messenger:  messenger,
		dispatcher: dispatcher,
		config:     cfg,
	}
}

// HandleMessage processes incoming WhatsApp messages from the trip chat
func (h *CommandHandler) HandleMessage(msg *events.Message) error {
	if msg.Message == nil {
		return nil
	}

	text := msg.Message.GetConversation()
	if text == "" {
		text = msg.Message.GetExtendedTextMessage().GetText()
	}
	if text == "" {
		return nil
	}

	if msg.Info.Chat.ToNonAD() != h.config.Chat.ToNonAD() {
		return nil
	}

	reply := h.HandleCommand(text)
	if reply == "" {
		return nil
	}
	if err := h.messenger.SendMessage(context.Background(), msg.Info.Chat.ToNonAD().String(), reply); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// HandleCommand runs one command and returns the reply. Text that is not a
// command yields an empty reply.
func (h *CommandHandler) HandleCommand(text string) string {
	command, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	command = strings.ToLower(strings.TrimPrefix(command, "/"))
	arg = strings.TrimSpace(arg)

	trip, ok := h.dispatcher.Store().ActiveTrip()
	if !ok {
		if isCommand(command) {
			return "No trip selected yet."
		}
		return ""
	}

	switch command {
	case "todo":
		return h.addItem(trip, models.PlanTodo, arg)
	case "pack":
		return h.addItem(trip, models.PlanPacking, arg)
	case "buy":
		return h.addItem(trip, models.PlanShopping, arg)
	case "done":
		return h.complete(trip, arg)
	case "list":
		return formatPlans(trip)
	case "day":
		return h.day(trip, arg)
	}
	return ""
}

func (h *CommandHandler) addItem(trip *models.Trip, category models.PlanCategory, text string) string {
	if text == "" {
		return fmt.Sprintf("Usage: %s <text>", commandFor(category))
	}
	_, id := h.dispatcher.AddPlanItem(trip.ID, models.PlanItem{
		Category: category,
		Text:     text,
		Priority: models.PriorityMedium,
	})
	if id == "" {
		return "That trip is gone."
	}
	return fmt.Sprintf("✅ Added to %s: %s", category, text)
}

func (h *CommandHandler) complete(trip *models.Trip, arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(trip.Plans) {
		return fmt.Sprintf("Pick a number between 1 and %d.", len(trip.Plans))
	}
	item := trip.Plans[n-1]
	done := true
	h.dispatcher.UpdatePlanItem(trip.ID, item.ID, models.PlanItemPatch{Completed: &done})
	return fmt.Sprintf("✔️ Done: %s", item.Text)
}

func (h *CommandHandler) day(trip *models.Trip, arg string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(trip.DailyItinerary) {
		return fmt.Sprintf("Pick a day between 1 and %d.", len(trip.DailyItinerary))
	}
	day := trip.DailyItinerary[n-1]
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Day %d (%s)", day.Day, day.Date)
	if len(day.Activities) == 0 {
		b.WriteString("\nNothing planned.")
	}
	for _, a := range day.Activities {
		fmt.Fprintf(&b, "\n%s %s", a.Time, a.Location)
	}
	return b.String()
}

func formatPlans(trip *models.Trip) string {
	if len(trip.Plans) == 0 {
		return "The list is empty."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 %s", trip.Title)
	for i, item := range trip.Plans {
		mark := "☐"
		if item.Completed {
			mark = "☑"
		}
		fmt.Fprintf(&b, "\n%d. %s %s (%s)", i+1, mark, item.Text, item.Category)
		if m, ok := trip.FindMember(item.AssigneeID); ok {
			fmt.Fprintf(&b, " → %s", m.Name)
		}
	}
	return b.String()
}

func commandFor(category models.PlanCategory) string {
	switch category {
	case models.PlanPacking:
		return "pack"
	case models.PlanShopping:
		return "buy"
	}
	return "todo"
}

func isCommand(command string) bool {
	switch command {
	case "todo", "pack", "buy", "done", "list", "day":
		return true
	}
	return false
}
