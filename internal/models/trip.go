package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// Remote blobs carry amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the calendar date format used for trip and day dates.
const DateLayout = "2006-01-02"

// TripStatus represents where a trip is in its lifecycle
type TripStatus string

const (
	TripPlanning  TripStatus = "planning"
	TripOngoing   TripStatus = "ongoing"
	TripCompleted TripStatus = "completed"
)

// Trip is the top-level planning unit. It is persisted remotely as one blob.
type Trip struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	StartDate      string           `json:"startDate"`
	EndDate        string           `json:"endDate"`
	CoverImage     string           `json:"coverImage,omitempty"`
	Status         TripStatus       `json:"status,omitempty"`
	BudgetTotal    Money            `json:"budgetTotal"`
	ExchangeRate   Money            `json:"exchangeRate"`
	Members        []Member         `json:"members"`
	Bookings       []Booking        `json:"bookings"`
	Expenses       []Expense        `json:"expenses"`
	Plans          []PlanItem       `json:"plans"`
	DailyItinerary []DailyItinerary `json:"dailyItinerary"`
	Revision       int64            `json:"revision,omitempty"`
}

// Member is a person taking part in a trip
type Member struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Weather is the forecast attached to a day
type Weather struct {
	Condition string  `json:"condition"`
	TempHigh  float64 `json:"tempHigh"`
	TempLow   float64 `json:"tempLow"`
}

// DailyItinerary is one day of the trip. Activities may contain nil entries
// when decoded from the remote store; the sanitizer removes them.
type DailyItinerary struct {
	Day            int         `json:"day"`
	Date           string      `json:"date"`
	Weather        *Weather    `json:"weather,omitempty"`
	CoverImage     string      `json:"coverImage,omitempty"`
	CustomLocation string      `json:"customLocation,omitempty"`
	Activities     []*Activity `json:"activities"`
}

// MaxPhotos is the number of photo references an activity keeps
const MaxPhotos = 3

// Activity is a single scheduled item within a day
type Activity struct {
	ID       string   `json:"id"`
	Time     string   `json:"time"`
	Type     string   `json:"type"`
	Location string   `json:"location"`
	Address  string   `json:"address,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
	Cost     Money    `json:"cost"`
	Note     string   `json:"note,omitempty"`
	Rating   int      `json:"rating,omitempty"`
	Comment  string   `json:"comment,omitempty"`
	Visited  bool     `json:"visited"`
	Photos   []string `json:"photos,omitempty"`
}

// FindMember looks up a member by id. Dangling ids report false.
func (t *Trip) FindMember(id string) (Member, bool) {
	for _, m := range t.Members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// ActivityIndex returns the position of an activity within a day, or -1
func (d *DailyItinerary) ActivityIndex(id string) int {
	for i, a := range d.Activities {
		if a != nil && a.ID == id {
			return i
		}
	}
	return -1
}

// LimitPhotos trims a photo list to MaxPhotos entries
func LimitPhotos(photos []string) []string {
	if len(photos) <= MaxPhotos {
		return photos
	}
	return photos[:MaxPhotos]
}
