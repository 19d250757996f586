package models

// Patches carry partial updates: a nil field means "leave unchanged".

type TripPatch struct {
	Title        *string     `json:"title,omitempty"`
	StartDate    *string     `json:"startDate,omitempty"`
	CoverImage   *string     `json:"coverImage,omitempty"`
	Status       *TripStatus `json:"status,omitempty"`
	BudgetTotal  *Money      `json:"budgetTotal,omitempty"`
	ExchangeRate *Money      `json:"exchangeRate,omitempty"`
	// Days resizes the itinerary, truncating or appending empty days.
	Days *int `json:"days,omitempty"`
}

type DayPatch struct {
	Weather        *Weather `json:"weather,omitempty"`
	CoverImage     *string  `json:"coverImage,omitempty"`
	CustomLocation *string  `json:"customLocation,omitempty"`
}

type ActivityPatch struct {
	Time     *string   `json:"time,omitempty"`
	Type     *string   `json:"type,omitempty"`
	Location *string   `json:"location,omitempty"`
	Address  *string   `json:"address,omitempty"`
	Lat      *float64  `json:"lat,omitempty"`
	Lng      *float64  `json:"lng,omitempty"`
	Cost     *Money    `json:"cost,omitempty"`
	Note     *string   `json:"note,omitempty"`
	Rating   *int      `json:"rating,omitempty"`
	Comment  *string   `json:"comment,omitempty"`
	Visited  *bool     `json:"visited,omitempty"`
	Photos   *[]string `json:"photos,omitempty"`
}

// Apply writes the set fields onto a
func (p ActivityPatch) Apply(a *Activity) {
	setIf(&a.Time, p.Time)
	setIf(&a.Type, p.Type)
	setIf(&a.Location, p.Location)
	setIf(&a.Address, p.Address)
	setIf(&a.Cost, p.Cost)
	setIf(&a.Note, p.Note)
	setIf(&a.Rating, p.Rating)
	setIf(&a.Comment, p.Comment)
	setIf(&a.Visited, p.Visited)
	if p.Lat != nil {
		lat := *p.Lat
		a.Lat = &lat
	}
	if p.Lng != nil {
		lng := *p.Lng
		a.Lng = &lng
	}
	if p.Photos != nil {
		a.Photos = LimitPhotos(append([]string(nil), *p.Photos...))
	}
}

type MemberPatch struct {
	Name   *string `json:"name,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

func (p MemberPatch) Apply(m *Member) {
	setIf(&m.Name, p.Name)
	setIf(&m.Avatar, p.Avatar)
}

// BookingPatch replaces Details wholesale when set; its variant must match
// the booking type.
type BookingPatch struct {
	Title   *string        `json:"title,omitempty"`
	Date    *string        `json:"date,omitempty"`
	FileURL *string        `json:"fileUrl,omitempty"`
	Details BookingDetails `json:"-"`
}

func (p BookingPatch) Apply(b *Booking) {
	setIf(&b.Title, p.Title)
	setIf(&b.Date, p.Date)
	setIf(&b.FileURL, p.FileURL)
	if p.Details != nil {
		b.Type = p.Details.BookingType()
		b.Details = p.Details
	}
}

type ExpensePatch struct {
	Amount       *Money            `json:"amount,omitempty"`
	Category     *string           `json:"category,omitempty"`
	Item         *string           `json:"item,omitempty"`
	Note         *string           `json:"note,omitempty"`
	Date         *string           `json:"date,omitempty"`
	PayerID      *string           `json:"payerId,omitempty"`
	SplitWithIDs *[]string         `json:"splitWithIds,omitempty"`
	CustomSplits *map[string]Money `json:"customSplits,omitempty"`
	ReceiptURL   *string           `json:"receiptUrl,omitempty"`
}

func (p ExpensePatch) Apply(e *Expense) {
	setIf(&e.Amount, p.Amount)
	setIf(&e.Category, p.Category)
	setIf(&e.Item, p.Item)
	setIf(&e.Note, p.Note)
	setIf(&e.Date, p.Date)
	setIf(&e.PayerID, p.PayerID)
	setIf(&e.ReceiptURL, p.ReceiptURL)
	if p.SplitWithIDs != nil {
		e.SplitWithIDs = append([]string(nil), *p.SplitWithIDs...)
	}
	if p.CustomSplits != nil {
		splits := make(map[string]Money, len(*p.CustomSplits))
		for k, v := range *p.CustomSplits {
			splits[k] = v
		}
		e.CustomSplits = splits
	}
}

type PlanItemPatch struct {
	Category      *PlanCategory `json:"category,omitempty"`
	Text          *string       `json:"text,omitempty"`
	Priority      *Priority     `json:"priority,omitempty"`
	Location      *string       `json:"location,omitempty"`
	EstimatedCost *Money        `json:"estimatedCost,omitempty"`
	AssigneeID    *string       `json:"assigneeId,omitempty"`
	ImageURL      *string       `json:"imageUrl,omitempty"`
	Completed     *bool         `json:"completed,omitempty"`
}

func (p PlanItemPatch) Apply(item *PlanItem) {
	setIf(&item.Category, p.Category)
	setIf(&item.Text, p.Text)
	setIf(&item.Priority, p.Priority)
	setIf(&item.Location, p.Location)
	setIf(&item.EstimatedCost, p.EstimatedCost)
	setIf(&item.AssigneeID, p.AssigneeID)
	setIf(&item.ImageURL, p.ImageURL)
	setIf(&item.Completed, p.Completed)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
