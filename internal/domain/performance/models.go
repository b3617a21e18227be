package performance

import (
	"time"

	"github.com/shopspring/decimal"
)

type Indicator struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Rating struct {
	IndicatorID   string `json:"indicatorId"`
	IndicatorName string `json:"indicatorName,omitempty"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

type Review struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	ReviewerID    string          `json:"reviewerId,omitempty"`
	ReviewerName  string          `json:"reviewerName,omitempty"`
	Period        string          `json:"reviewPeriod"`
	Date          time.Time       `json:"reviewDate"`
	OverallRating decimal.Decimal `json:"overallRating"`
	Comments      string          `json:"comments"`
	Status        string          `json:"status"`
	Ratings       []Rating        `json:"ratings"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Summary struct {
	ReviewsTotal       int             `json:"reviewsTotal"`
	ReviewsCompleted   int             `json:"reviewsCompleted"`
	CompletionRate     float64         `json:"completionRate"`
	AverageRating      decimal.Decimal `json:"averageRating"`
	RatingDistribution map[string]int  `json:"ratingDistribution"`
}
