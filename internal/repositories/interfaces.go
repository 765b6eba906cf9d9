package repositories

import "time"

// ===== SHARED FILTER STRUCTS =====

type ResultFilters struct {
	ExamID    *string    `json:"exam_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "completed_at", "overall_score"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

const (
	DefaultResultLimit = 20
	MaxResultLimit     = 100
)

// Normalize applies defaults and bounds the page size.
func (f ResultFilters) Normalize() ResultFilters {
	if f.Limit <= 0 {
		f.Limit = DefaultResultLimit
	}
	if f.Limit > MaxResultLimit {
		f.Limit = MaxResultLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	switch f.SortBy {
	case "completed_at", "overall_score":
	default:
		f.SortBy = "completed_at"
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	return f
}

// OrderClause renders the sort as SQL. Only whitelisted columns reach it.
func (f ResultFilters) OrderClause() string {
	n := f.Normalize()
	return n.SortBy + " " + n.SortOrder
}
