package core

// YearView is one year of a TrainerView. Each element of Months is a
// single-entry map from month name to total minutes.
type YearView struct {
	Year   int                `json:"year"`
	Months []map[string]int64 `json:"months"`
}

// TrainerView is the read-only projection returned to query callers.
type TrainerView struct {
	Username  string     `json:"username"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Status    string     `json:"status"`
	Years     []YearView `json:"years"`
}

// NewTrainerView renders r preserving year and month insertion order.
func NewTrainerView(r TrainerRecord) TrainerView {
	v := TrainerView{
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Status:    r.Status.String(),
		Years:     make([]YearView, 0, len(r.Years)),
	}
	for _, y := range r.Years {
		yv := YearView{Year: y.Year, Months: make([]map[string]int64, 0, len(y.Months))}
		for _, m := range y.Months {
			yv.Months = append(yv.Months, map[string]int64{m.Month: m.Minutes})
		}
		v.Years = append(v.Years, yv)
	}
	return v
}
