package models

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the trip. Published trips are never mutated,
// so every change starts from a clone.
func (t *Trip) Clone() *Trip {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = slices.Clone(t.Members)
	c.Bookings = slices.Clone(t.Bookings)
	c.Plans = slices.Clone(t.Plans)

	if t.Expenses != nil {
		c.Expenses = make([]Expense, len(t.Expenses))
		for i, e := range t.Expenses {
			c.Expenses[i] = e.Clone()
		}
	}
	if t.DailyItinerary != nil {
		c.DailyItinerary = make([]DailyItinerary, len(t.DailyItinerary))
		for i := range t.DailyItinerary {
			c.DailyItinerary[i] = t.DailyItinerary[i].Clone()
		}
	}
	return &c
}

// Clone copies the day and each of its activities. Nil entries stay nil.
func (d DailyItinerary) Clone() DailyItinerary {
	if d.Weather != nil {
		w := *d.Weather
		d.Weather = &w
	}
	if d.Activities != nil {
		activities := make([]*Activity, len(d.Activities))
		for i, a := range d.Activities {
			activities[i] = a.Clone()
		}
		d.Activities = activities
	}
	return d
}

// Clone copies the activity, including its coordinates and photo list
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	c := *a
	if a.Lat != nil {
		lat := *a.Lat
		c.Lat = &lat
	}
	if a.Lng != nil {
		lng := *a.Lng
		c.Lng = &lng
	}
	c.Photos = slices.Clone(a.Photos)
	return &c
}

func (e Expense) Clone() Expense {
	e.SplitWithIDs = slices.Clone(e.SplitWithIDs)
	e.CustomSplits = maps.Clone(e.CustomSplits)
	return e
}
