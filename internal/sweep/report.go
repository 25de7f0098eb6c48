package sweep

import "time"

// ItemResult records the outcome of classifying a single library item.
type ItemResult struct {
	ItemID    int64
	Title     string
	Tier      string
	ProfileID int64
	Err       error
}

// Report summarizes a completed sweep.
type Report struct {
	Processed int
	Updated   int
	Failed    int
	Duration  time.Duration
	Results   []ItemResult
}

func (r *Report) add(result ItemResult) {
	r.Processed++
	if result.Err != nil {
		r.Failed++
	} else {
		r.Updated++
	}
	r.Results = append(r.Results, result)
}
