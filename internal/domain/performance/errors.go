package performance

import "errors"

var (
	ErrIndicatorNotFound = errors.New("indicator not found")
	ErrReviewNotFound    = errors.New("review not found")
	ErrInvalidIndicator  = errors.New("invalid indicator")
	ErrInvalidReview     = errors.New("invalid review")
	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrEmployeeNotFound  = errors.New("employee not found")
)
