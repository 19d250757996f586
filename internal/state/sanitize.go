package state

import (
	"trip-sync/internal/models"
)

// Sanitize drops nil activities and activities without an id from every day
// of the trip. It returns the trip itself when nothing had to be removed and
// a cleaned copy otherwise, so the input is never modified. The second return
// value counts the dropped entries.
func Sanitize(trip *models.Trip) (*models.Trip, int) {
	if trip == nil {
		return nil, 0
	}
	if countInvalid(trip) == 0 && !hasNilActivities(trip) {
		return trip, 0
	}

	clean := trip.Clone()
	dropped := 0
	for i := range clean.DailyItinerary {
		day := &clean.DailyItinerary[i]
		kept := make([]*models.Activity, 0, len(day.Activities))
		for _, a := range day.Activities {
			if a == nil || a.ID == "" {
				dropped++
				continue
			}
			kept = append(kept, a)
		}
		day.Activities = kept
	}
	return clean, dropped
}

func countInvalid(trip *models.Trip) int {
	n := 0
	for _, day := range trip.DailyItinerary {
		for _, a := range day.Activities {
			if a == nil || a.ID == "" {
				n++
			}
		}
	}
	return n
}

// hasNilActivities reports days whose activity list itself is null
func hasNilActivities(trip *models.Trip) bool {
	for _, day := range trip.DailyItinerary {
		if day.Activities == nil {
			return true
		}
	}
	return false
}
