package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trip-sync/internal/models"
	"trip-sync/internal/state"
)

// Handler exposes the dispatcher over HTTP. Every write answers with the
// trip as it looks after the mutation.
type Handler struct {
	dispatcher *state.Dispatcher
}

// NewHandler creates a new Handler
func NewHandler(dispatcher *state.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

type stateResponse struct {
	Trips        []*models.Trip `json:"trips"`
	ActiveTripID string         `json:"activeTripId"`
	Syncing      bool           `json:"syncing"`
}

type orderRequest struct {
	IDs []string `json:"ids"`
}

// GetState handles GET /api/state
func (h *Handler) GetState(c *gin.Context) {
	store := h.dispatcher.Store()
	s := store.Snapshot()
	trips := s.Trips
	if trips == nil {
		trips = []*models.Trip{}
	}
	c.JSON(http.StatusOK, stateResponse{Trips: trips, ActiveTripID: s.ActiveTripID, Syncing: store.Syncing()})
}

// ListTrips handles GET /api/trips
func (h *Handler) ListTrips(c *gin.Context) {
	trips := h.dispatcher.Store().Trips()
	if trips == nil {
		trips = []*models.Trip{}
	}
	c.JSON(http.StatusOK, trips)
}

// GetTrip handles GET /api/trips/:id
func (h *Handler) GetTrip(c *gin.Context) {
	trip, ok := h.trip(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, trip)
}

// CreateTrip handles POST /api/trips
func (h *Handler) CreateTrip(c *gin.Context) {
	var in state.NewTrip
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	if in.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	next, id := h.dispatcher.CreateTrip(in)
	trip, _ := next.Trip(id)
	c.JSON(http.StatusCreated, trip)
}

// UpdateTrip handles PATCH /api/trips/:id
func (h *Handler) UpdateTrip(c *gin.Context) {
	var p models.TripPatch
	if !h.bind(c, &p) {
		return
	}
	if p.Days != nil && *p.Days < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be at least 1"})
		return
	}
	h.respond(c, h.dispatcher.UpdateTripSettings(c.Param("id"), p))
}

// DeleteTrip handles DELETE /api/trips/:id
func (h *Handler) DeleteTrip(c *gin.Context) {
	if _, ok := h.trip(c); !ok {
		return
	}
	h.dispatcher.DeleteTrip(c.Param("id"))
	c.Status(http.StatusNoContent)
}

// SetActiveTrip handles PUT /api/active-trip
func (h *Handler) SetActiveTrip(c *gin.Context) {
	var req struct {
		TripID string `json:"tripId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next := h.dispatcher.SetActiveTrip(req.TripID)
	if next.ActiveTripID != req.TripID {
		errorJSON(c, http.StatusNotFound, state.ErrTripNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activeTripId": next.ActiveTripID})
}

// Balances handles GET /api/trips/:id/balances
func (h *Handler) Balances(c *gin.Context) {
	trip, ok := h.trip(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.Balances(trip))
}

// Days

// AddDay handles POST /api/trips/:id/days. An "index" inserts the day there
// instead of appending it.
func (h *Handler) AddDay(c *gin.Context) {
	var req struct {
		Index *int `json:"index"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	trip, ok := h.trip(c)
	if !ok {
		return
	}
	if req.Index == nil {
		h.respond(c, h.dispatcher.AddDay(trip.ID))
		return
	}
	if *req.Index < 0 || *req.Index > len(trip.DailyItinerary) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index out of range"})
		return
	}
	h.respond(c, h.dispatcher.InsertDay(trip.ID, *req.Index))
}

// UpdateDay handles PATCH /api/trips/:id/days/:day
func (h *Handler) UpdateDay(c *gin.Context) {
	var p models.DayPatch
	if !h.bind(c, &p) {
		return
	}
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	h.respond(c, h.dispatcher.UpdateDay(trip.ID, dayIndex, p))
}

// DeleteDay handles DELETE /api/trips/:id/days/:day
func (h *Handler) DeleteDay(c *gin.Context) {
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	h.respond(c, h.dispatcher.DeleteDay(trip.ID, dayIndex))
}

// Activities

// AddActivity handles POST /api/trips/:id/days/:day/activities
func (h *Handler) AddActivity(c *gin.Context) {
	var a models.Activity
	if !h.bind(c, &a) {
		return
	}
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	next, _ := h.dispatcher.AddActivity(trip.ID, dayIndex, a)
	h.respondCreated(c, next)
}

// UpdateActivity handles PATCH /api/trips/:id/days/:day/activities/:activityId
func (h *Handler) UpdateActivity(c *gin.Context) {
	var p models.ActivityPatch
	if !h.bind(c, &p) {
		return
	}
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	h.respondChanged(c, "activity", func() *state.State {
		return h.dispatcher.UpdateActivity(trip.ID, dayIndex, c.Param("activityId"), p)
	})
}

// DeleteActivity handles DELETE /api/trips/:id/days/:day/activities/:activityId
func (h *Handler) DeleteActivity(c *gin.Context) {
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	h.respondChanged(c, "activity", func() *state.State {
		return h.dispatcher.DeleteActivity(trip.ID, dayIndex, c.Param("activityId"))
	})
}

// ReorderActivities handles PUT /api/trips/:id/days/:day/activities/order
func (h *Handler) ReorderActivities(c *gin.Context) {
	var req orderRequest
	if !h.bind(c, &req) {
		return
	}
	trip, dayIndex, ok := h.day(c)
	if !ok {
		return
	}
	h.respondOrder(c, func() *state.State {
		return h.dispatcher.UpdateActivityOrder(trip.ID, dayIndex, req.IDs)
	})
}

// Members

func (h *Handler) AddMember(c *gin.Context) {
	var m models.Member
	if !h.bind(c, &m) {
		return
	}
	next, _ := h.dispatcher.AddMember(c.Param("id"), m)
	h.respondCreated(c, next)
}

func (h *Handler) UpdateMember(c *gin.Context) {
	var p models.MemberPatch
	if !h.bind(c, &p) {
		return
	}
	h.respondChanged(c, "member", func() *state.State {
		return h.dispatcher.UpdateMember(c.Param("id"), c.Param("memberId"), p)
	})
}

func (h *Handler) DeleteMember(c *gin.Context) {
	h.respondChanged(c, "member", func() *state.State {
		return h.dispatcher.DeleteMember(c.Param("id"), c.Param("memberId"))
	})
}

// Bookings

func (h *Handler) AddBooking(c *gin.Context) {
	var b models.Booking
	if !h.bind(c, &b) {
		return
	}
	next, _ := h.dispatcher.AddBooking(c.Param("id"), b)
	h.respondCreated(c, next)
}

// UpdateBooking accepts the patch fields plus an optional "type" and
// "details" pair that replaces the details variant.
func (h *Handler) UpdateBooking(c *gin.Context) {
	var req struct {
		models.BookingPatch
		Type    models.BookingType `json:"type"`
		Details json.RawMessage    `json:"details"`
	}
	if !h.bind(c, &req) {
		return
	}
	p := req.BookingPatch
	if len(req.Details) > 0 {
		details, err := decodeDetails(req.Type, req.Details)
		if err != nil {
			badRequest(c, err)
			return
		}
		p.Details = details
	}
	h.respondChanged(c, "booking", func() *state.State {
		return h.dispatcher.UpdateBooking(c.Param("id"), c.Param("bookingId"), p)
	})
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	h.respondChanged(c, "booking", func() *state.State {
		return h.dispatcher.DeleteBooking(c.Param("id"), c.Param("bookingId"))
	})
}

// Expenses

func (h *Handler) AddExpense(c *gin.Context) {
	var e models.Expense
	if !h.bind(c, &e) {
		return
	}
	next, _ := h.dispatcher.AddExpense(c.Param("id"), e)
	h.respondCreated(c, next)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	var p models.ExpensePatch
	if !h.bind(c, &p) {
		return
	}
	h.respondChanged(c, "expense", func() *state.State {
		return h.dispatcher.UpdateExpense(c.Param("id"), c.Param("expenseId"), p)
	})
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	h.respondChanged(c, "expense", func() *state.State {
		return h.dispatcher.DeleteExpense(c.Param("id"), c.Param("expenseId"))
	})
}

// Plan items

// ListPlans handles GET /api/trips/:id/plans. ?view=priority returns the
// priority-sorted view; the stored order is never changed by it.
func (h *Handler) ListPlans(c *gin.Context) {
	trip, ok := h.trip(c)
	if !ok {
		return
	}
	plans := trip.Plans
	if c.Query("view") == "priority" {
		plans = state.SortPlanItemsByPriority(plans)
	}
	if plans == nil {
		plans = []models.PlanItem{}
	}
	c.JSON(http.StatusOK, plans)
}

func (h *Handler) AddPlanItem(c *gin.Context) {
	var item models.PlanItem
	if !h.bind(c, &item) {
		return
	}
	next, _ := h.dispatcher.AddPlanItem(c.Param("id"), item)
	h.respondCreated(c, next)
}

func (h *Handler) UpdatePlanItem(c *gin.Context) {
	var p models.PlanItemPatch
	if !h.bind(c, &p) {
		return
	}
	h.respondChanged(c, "plan item", func() *state.State {
		return h.dispatcher.UpdatePlanItem(c.Param("id"), c.Param("itemId"), p)
	})
}

func (h *Handler) DeletePlanItem(c *gin.Context) {
	h.respondChanged(c, "plan item", func() *state.State {
		return h.dispatcher.DeletePlanItem(c.Param("id"), c.Param("itemId"))
	})
}

func (h *Handler) ReorderPlans(c *gin.Context) {
	var req orderRequest
	if !h.bind(c, &req) {
		return
	}
	if _, ok := h.trip(c); !ok {
		return
	}
	h.respondOrder(c, func() *state.State {
		return h.dispatcher.UpdatePlanOrder(c.Param("id"), req.IDs)
	})
}

// helpers

func (h *Handler) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

func (h *Handler) trip(c *gin.Context) (*models.Trip, bool) {
	trip, ok := h.dispatcher.Store().Trip(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, state.ErrTripNotFound)
	}
	return trip, ok
}

// day resolves the 1-based :day parameter to an itinerary index
func (h *Handler) day(c *gin.Context) (*models.Trip, int, bool) {
	trip, ok := h.trip(c)
	if !ok {
		return nil, 0, false
	}
	n, err := strconv.Atoi(c.Param("day"))
	if err != nil || n < 1 || n > len(trip.DailyItinerary) {
		notFound(c, "day")
		return nil, 0, false
	}
	return trip, n - 1, true
}

func (h *Handler) respond(c *gin.Context, next *state.State) {
	h.respondStatus(c, http.StatusOK, next)
}

func (h *Handler) respondCreated(c *gin.Context, next *state.State) {
	h.respondStatus(c, http.StatusCreated, next)
}

func (h *Handler) respondStatus(c *gin.Context, status int, next *state.State) {
	trip, ok := next.Trip(c.Param("id"))
	if !ok {
		errorJSON(c, http.StatusNotFound, state.ErrTripNotFound)
		return
	}
	c.JSON(status, trip)
}

// respondChanged runs a mutation that is a no-op when its target is missing.
// An unchanged tree is reported as not found.
func (h *Handler) respondChanged(c *gin.Context, what string, mutate func() *state.State) {
	if _, ok := h.trip(c); !ok {
		return
	}
	prev := h.dispatcher.Store().Snapshot()
	next := mutate()
	if next == prev {
		notFound(c, what)
		return
	}
	h.respond(c, next)
}

func (h *Handler) respondOrder(c *gin.Context, mutate func() *state.State) {
	prev := h.dispatcher.Store().Snapshot()
	next := mutate()
	if next == prev {
		c.JSON(http.StatusConflict, gin.H{"error": "order does not match the current items"})
		return
	}
	h.respond(c, next)
}

func decodeDetails(t models.BookingType, raw json.RawMessage) (models.BookingDetails, error) {
	wire, err := json.Marshal(struct {
		Type    models.BookingType `json:"type"`
		Details json.RawMessage    `json:"details"`
	}{t, raw})
	if err != nil {
		return nil, err
	}
	var b models.Booking
	if err := json.Unmarshal(wire, &b); err != nil {
		return nil, err
	}
	if b.Details == nil {
		return nil, fmt.Errorf("unknown booking type %q", t)
	}
	return b.Details, nil
}

func badRequest(c *gin.Context, err error) {
	errorJSON(c, http.StatusBadRequest, err)
}

func errorJSON(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}
