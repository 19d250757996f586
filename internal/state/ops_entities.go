package state

import (
	"slices"

	"trip-sync/internal/models"
)

// Members

func (d *Dispatcher) AddMember(tripID string, m models.Member) (*State, string) {
	m.ID = d.id(m.ID)
	next := d.mutateTrip("addMember", tripID, func(t *models.Trip) bool {
		t.Members = append(t.Members, m)
		return true
	})
	return next, createdID(next, tripID, m.ID)
}

func (d *Dispatcher) UpdateMember(tripID, memberID string, p models.MemberPatch) *State {
	return d.mutateTrip("updateMember", tripID, func(t *models.Trip) bool {
		return updateByID(t.Members, memberID, func(m models.Member) string { return m.ID }, p.Apply)
	})
}

// DeleteMember removes the member only. Plan items and expenses that refer
// to it keep the dangling id and resolve as unassigned.
func (d *Dispatcher) DeleteMember(tripID, memberID string) *State {
	return d.mutateTrip("deleteMember", tripID, func(t *models.Trip) bool {
		return deleteByID(&t.Members, memberID, func(m models.Member) string { return m.ID })
	})
}

// Bookings

func (d *Dispatcher) AddBooking(tripID string, b models.Booking) (*State, string) {
	b.ID = d.id(b.ID)
	if b.Details != nil {
		b.Type = b.Details.BookingType()
	}
	next := d.mutateTrip("addBooking", tripID, func(t *models.Trip) bool {
		t.Bookings = append(t.Bookings, b)
		return true
	})
	return next, createdID(next, tripID, b.ID)
}

func (d *Dispatcher) UpdateBooking(tripID, bookingID string, p models.BookingPatch) *State {
	return d.mutateTrip("updateBooking", tripID, func(t *models.Trip) bool {
		return updateByID(t.Bookings, bookingID, func(b models.Booking) string { return b.ID }, p.Apply)
	})
}

func (d *Dispatcher) DeleteBooking(tripID, bookingID string) *State {
	return d.mutateTrip("deleteBooking", tripID, func(t *models.Trip) bool {
		return deleteByID(&t.Bookings, bookingID, func(b models.Booking) string { return b.ID })
	})
}

// Expenses

func (d *Dispatcher) AddExpense(tripID string, e models.Expense) (*State, string) {
	e = e.Clone()
	e.ID = d.id(e.ID)
	next := d.mutateTrip("addExpense", tripID, func(t *models.Trip) bool {
		t.Expenses = append(t.Expenses, e)
		return true
	})
	return next, createdID(next, tripID, e.ID)
}

func (d *Dispatcher) UpdateExpense(tripID, expenseID string, p models.ExpensePatch) *State {
	return d.mutateTrip("updateExpense", tripID, func(t *models.Trip) bool {
		return updateByID(t.Expenses, expenseID, func(e models.Expense) string { return e.ID }, p.Apply)
	})
}

func (d *Dispatcher) DeleteExpense(tripID, expenseID string) *State {
	return d.mutateTrip("deleteExpense", tripID, func(t *models.Trip) bool {
		return deleteByID(&t.Expenses, expenseID, func(e models.Expense) string { return e.ID })
	})
}

// Plan items

func (d *Dispatcher) AddPlanItem(tripID string, item models.PlanItem) (*State, string) {
	item.ID = d.id(item.ID)
	if item.Priority == "" {
		item.Priority = models.PriorityMedium
	}
	next := d.mutateTrip("addPlanItem", tripID, func(t *models.Trip) bool {
		t.Plans = append(t.Plans, item)
		return true
	})
	return next, createdID(next, tripID, item.ID)
}

func (d *Dispatcher) UpdatePlanItem(tripID, itemID string, p models.PlanItemPatch) *State {
	return d.mutateTrip("updatePlanItem", tripID, func(t *models.Trip) bool {
		return updateByID(t.Plans, itemID, planItemID, p.Apply)
	})
}

func (d *Dispatcher) DeletePlanItem(tripID, itemID string) *State {
	return d.mutateTrip("deletePlanItem", tripID, func(t *models.Trip) bool {
		return deleteByID(&t.Plans, itemID, planItemID)
	})
}

// UpdatePlanOrder replaces the plan list with the given id sequence
func (d *Dispatcher) UpdatePlanOrder(tripID string, ids []string) *State {
	return d.mutateTrip("updatePlanOrder", tripID, func(t *models.Trip) bool {
		if !d.acceptOrder("plans", tripID, isPermutation(t.Plans, ids, planItemID)) {
			return false
		}
		t.Plans = reorderByIDs(t.Plans, ids, planItemID)
		return true
	})
}

func planItemID(p models.PlanItem) string { return p.ID }

// createdID reports id when the create reached the trip, "" when the trip
// was missing
func createdID(s *State, tripID, id string) string {
	if _, ok := s.Trip(tripID); ok {
		return id
	}
	return ""
}

func updateByID[T any](items []T, id string, idOf func(T) string, apply func(*T)) bool {
	i := slices.IndexFunc(items, func(it T) bool { return idOf(it) == id })
	if i < 0 {
		return false
	}
	apply(&items[i])
	return true
}

func deleteByID[T any](items *[]T, id string, idOf func(T) string) bool {
	i := slices.IndexFunc(*items, func(it T) bool { return idOf(it) == id })
	if i < 0 {
		return false
	}
	*items = slices.Delete(*items, i, i+1)
	return true
}
