package performance

const (
	IndicatorActive   = "active"
	IndicatorInactive = "inactive"

	ReviewDraft     = "draft"
	ReviewSubmitted = "submitted"
	ReviewCompleted = "completed"

	MinRating = 1
	MaxRating = 5
)

func ValidReviewStatus(s string) bool {
	switch s {
	case ReviewDraft, ReviewSubmitted, ReviewCompleted:
		return true
	}
	return false
}
