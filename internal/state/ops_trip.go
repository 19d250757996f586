package state

import (
	"context"
	"slices"
	"time"

	"trip-sync/internal/models"
)

// NewTrip is the payload for CreateTrip
type NewTrip struct {
	ID           string          `json:"id,omitempty"`
	Title        string          `json:"title"`
	StartDate    string          `json:"startDate"`
	Days         int             `json:"days"`
	CoverImage   string          `json:"coverImage,omitempty"`
	BudgetTotal  models.Money    `json:"budgetTotal"`
	ExchangeRate models.Money    `json:"exchangeRate"`
	Members      []models.Member `json:"members,omitempty"`
}

// CreateTrip adds a trip with the requested number of empty days, makes it
// the active trip and persists it.
func (d *Dispatcher) CreateTrip(in NewTrip) (*State, string) {
	trip := &models.Trip{
		ID:           d.id(in.ID),
		Title:        in.Title,
		StartDate:    in.StartDate,
		EndDate:      in.StartDate,
		CoverImage:   in.CoverImage,
		Status:       models.TripPlanning,
		BudgetTotal:  in.BudgetTotal,
		ExchangeRate: in.ExchangeRate,
		Members:      []models.Member{},
		Bookings:     []models.Booking{},
		Expenses:     []models.Expense{},
		Plans:        []models.PlanItem{},
	}
	for _, m := range in.Members {
		m.ID = d.id(m.ID)
		trip.Members = append(trip.Members, m)
	}
	resizeDays(trip, max(in.Days, 1))
	recomputeDates(trip)

	_, next := d.store.replace(func(prev *State) *State {
		trips := make([]*models.Trip, 0, len(prev.Trips)+1)
		trips = append(trips, prev.Trips...)
		trips = append(trips, trip)
		d.persist("createTrip", trip)
		return &State{Trips: trips, ActiveTripID: trip.ID}
	})
	return next, trip.ID
}

// UpdateTripSettings applies trip-level edits. A start date change or a
// resize re-derives every day's date and the end date.
func (d *Dispatcher) UpdateTripSettings(tripID string, p models.TripPatch) *State {
	return d.mutateTrip("updateTripSettings", tripID, func(t *models.Trip) bool {
		setIf(&t.Title, p.Title)
		setIf(&t.StartDate, p.StartDate)
		setIf(&t.CoverImage, p.CoverImage)
		setIf(&t.Status, p.Status)
		setIf(&t.BudgetTotal, p.BudgetTotal)
		setIf(&t.ExchangeRate, p.ExchangeRate)
		if p.Days != nil && *p.Days > 0 {
			resizeDays(t, *p.Days)
		}
		if p.StartDate != nil || p.Days != nil {
			recomputeDates(t)
		}
		return true
	})
}

// DeleteTrip removes the trip locally and issues a remote delete. The
// active trip id is cleared when it pointed at the deleted trip.
func (d *Dispatcher) DeleteTrip(tripID string) *State {
	_, next := d.store.replace(func(prev *State) *State {
		i := prev.index(tripID)
		if i < 0 {
			return prev
		}
		d.remote("deleteTrip", tripID, func(ctx context.Context) error {
			return d.repo.Delete(ctx, tripID)
		})
		trips := make([]*models.Trip, 0, len(prev.Trips)-1)
		trips = append(trips, prev.Trips[:i]...)
		trips = append(trips, prev.Trips[i+1:]...)
		active := prev.ActiveTripID
		if active == tripID {
			active = ""
		}
		return &State{Trips: trips, ActiveTripID: active}
	})
	return next
}

// SetActiveTrip selects the trip the UI works on. Unknown ids are ignored;
// an empty id clears the selection. Nothing is persisted remotely.
func (d *Dispatcher) SetActiveTrip(tripID string) *State {
	_, next := d.store.replace(func(prev *State) *State {
		if prev.ActiveTripID == tripID {
			return prev
		}
		if tripID != "" && prev.index(tripID) < 0 {
			return prev
		}
		return &State{Trips: prev.Trips, ActiveTripID: tripID}
	})
	return next
}

// AddDay appends an empty day
func (d *Dispatcher) AddDay(tripID string) *State {
	return d.mutateTrip("addDay", tripID, func(t *models.Trip) bool {
		resizeDays(t, len(t.DailyItinerary)+1)
		recomputeDates(t)
		return true
	})
}

// InsertDay inserts an empty day at index and shifts later days up
func (d *Dispatcher) InsertDay(tripID string, index int) *State {
	return d.mutateTrip("insertDay", tripID, func(t *models.Trip) bool {
		if index < 0 || index > len(t.DailyItinerary) {
			return false
		}
		day := models.DailyItinerary{Activities: []*models.Activity{}}
		t.DailyItinerary = slices.Insert(t.DailyItinerary, index, day)
		renumberDays(t)
		recomputeDates(t)
		return true
	})
}

// DeleteDay removes a day and renumbers the rest contiguously from 1
func (d *Dispatcher) DeleteDay(tripID string, dayIndex int) *State {
	return d.mutateTrip("deleteDay", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		t.DailyItinerary = slices.Delete(t.DailyItinerary, dayIndex, dayIndex+1)
		renumberDays(t)
		recomputeDates(t)
		return true
	})
}

// UpdateDay edits the weather, cover image or custom location of a day
func (d *Dispatcher) UpdateDay(tripID string, dayIndex int, p models.DayPatch) *State {
	return d.mutateTrip("updateDay", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		day := &t.DailyItinerary[dayIndex]
		if p.Weather != nil {
			w := *p.Weather
			day.Weather = &w
		}
		setIf(&day.CoverImage, p.CoverImage)
		setIf(&day.CustomLocation, p.CustomLocation)
		return true
	})
}

func validDay(t *models.Trip, dayIndex int) bool {
	return dayIndex >= 0 && dayIndex < len(t.DailyItinerary)
}

// resizeDays truncates or extends the itinerary to n days
func resizeDays(t *models.Trip, n int) {
	if n < len(t.DailyItinerary) {
		t.DailyItinerary = t.DailyItinerary[:n]
	}
	for len(t.DailyItinerary) < n {
		t.DailyItinerary = append(t.DailyItinerary, models.DailyItinerary{Activities: []*models.Activity{}})
	}
	renumberDays(t)
}

func renumberDays(t *models.Trip) {
	for i := range t.DailyItinerary {
		t.DailyItinerary[i].Day = i + 1
	}
}

// recomputeDates sets each day to startDate+index and the end date to the
// last day. An unparsable start date leaves dates alone.
func recomputeDates(t *models.Trip) {
	start, err := time.Parse(models.DateLayout, t.StartDate)
	if err != nil {
		return
	}
	for i := range t.DailyItinerary {
		t.DailyItinerary[i].Date = start.AddDate(0, 0, i).Format(models.DateLayout)
	}
	t.EndDate = t.StartDate
	if n := len(t.DailyItinerary); n > 0 {
		t.EndDate = t.DailyItinerary[n-1].Date
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
