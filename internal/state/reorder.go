package state

import (
	"slices"
	"strings"

	"trip-sync/internal/models"
)

// SortByTime returns the activities in ascending HH:MM order. The sort is
// stable: activities sharing a time keep their relative order.
func SortByTime(activities []*models.Activity) []*models.Activity {
	sorted := slices.Clone(activities)
	slices.SortStableFunc(sorted, func(a, b *models.Activity) int {
		return strings.Compare(a.Time, b.Time)
	})
	return sorted
}

// SortPlanItemsByPriority is the default view order for plan items. It never
// writes back into the trip.
func SortPlanItemsByPriority(items []models.PlanItem) []models.PlanItem {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b models.PlanItem) int {
		return a.Priority.Rank() - b.Priority.Rank()
	})
	return sorted
}

// reorderByIDs builds the caller's sequence from existing entries. Unknown
// ids are skipped and entries the caller left out are dropped.
func reorderByIDs[T any](items []T, ids []string, idOf func(T) string) []T {
	byID := make(map[string]T, len(items))
	for _, it := range items {
		byID[idOf(it)] = it
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// isPermutation reports whether ids names every current entry exactly once
func isPermutation[T any](items []T, ids []string, idOf func(T) string) bool {
	if len(items) != len(ids) {
		return false
	}
	want := make(map[string]int, len(items))
	for _, it := range items {
		want[idOf(it)]++
	}
	for _, id := range ids {
		if want[id] == 0 {
			return false
		}
		want[id]--
	}
	return true
}
