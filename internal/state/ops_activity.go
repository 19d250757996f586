package state

import (
	"trip-sync/internal/models"
)

// AddActivity appends an activity to a day and restores time order. An out
// of range day index is a no-op, since the day may have been deleted.
func (d *Dispatcher) AddActivity(tripID string, dayIndex int, a models.Activity) (*State, string) {
	var id string
	next := d.mutateTrip("addActivity", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		activity := a.Clone()
		activity.ID = d.id(a.ID)
		activity.Photos = models.LimitPhotos(activity.Photos)
		day := &t.DailyItinerary[dayIndex]
		day.Activities = SortByTime(append(day.Activities, activity))
		id = activity.ID
		return true
	})
	return next, id
}

// UpdateActivity applies a partial update. The day is re-sorted only when
// the patch sets a time, so a manual order survives other edits.
func (d *Dispatcher) UpdateActivity(tripID string, dayIndex int, activityID string, p models.ActivityPatch) *State {
	return d.mutateTrip("updateActivity", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		day := &t.DailyItinerary[dayIndex]
		i := day.ActivityIndex(activityID)
		if i < 0 {
			return false
		}
		p.Apply(day.Activities[i])
		if p.Time != nil {
			day.Activities = SortByTime(day.Activities)
		}
		return true
	})
}

func (d *Dispatcher) DeleteActivity(tripID string, dayIndex int, activityID string) *State {
	return d.mutateTrip("deleteActivity", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		day := &t.DailyItinerary[dayIndex]
		i := day.ActivityIndex(activityID)
		if i < 0 {
			return false
		}
		day.Activities = append(day.Activities[:i:i], day.Activities[i+1:]...)
		return true
	})
}

// UpdateActivityOrder replaces the day's activities with the given id
// sequence, as produced by a drag gesture. Time order is suspended until the
// next time edit.
func (d *Dispatcher) UpdateActivityOrder(tripID string, dayIndex int, ids []string) *State {
	return d.mutateTrip("updateActivityOrder", tripID, func(t *models.Trip) bool {
		if !validDay(t, dayIndex) {
			return false
		}
		day := &t.DailyItinerary[dayIndex]
		if !d.acceptOrder("activities", tripID, isPermutation(day.Activities, ids, activityID)) {
			return false
		}
		day.Activities = reorderByIDs(day.Activities, ids, activityID)
		return true
	})
}

// acceptOrder applies the strict reorder guard when enabled
func (d *Dispatcher) acceptOrder(collection, tripID string, permutation bool) bool {
	if permutation || !d.strict {
		return true
	}
	d.metrics.orderRejected()
	d.log.Warn().Str("trip", tripID).Str("collection", collection).Msg("Rejected reorder that adds, drops or repeats entries")
	return false
}

func activityID(a *models.Activity) string { return a.ID }
