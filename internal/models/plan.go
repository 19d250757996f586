package models

// PlanCategory groups preparation items
type PlanCategory string

const (
	PlanTodo     PlanCategory = "Todo"
	PlanPacking  PlanCategory = "Packing"
	PlanShopping PlanCategory = "Shopping"
)

// Priority is only used for the default view sort, never for stored order
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities for display: High first, unknown last.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// PlanItem is a todo, packing or shopping entry
type PlanItem struct {
	ID            string       `json:"id"`
	Category      PlanCategory `json:"category"`
	Text          string       `json:"text"`
	Priority      Priority     `json:"priority"`
	Location      string       `json:"location,omitempty"`
	EstimatedCost Money        `json:"estimatedCost"`
	AssigneeID    string       `json:"assigneeId,omitempty"`
	ImageURL      string       `json:"imageUrl,omitempty"`
	Completed     bool         `json:"completed"`
}
