package performance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"hrsaas/internal/domain/tenancy"
	"hrsaas/internal/platform/listing"
	"hrsaas/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const indicatorColumns = "id, name, category, description, status, created_at"

func scanIndicator(row pgx.Row) (Indicator, error) {
	var in Indicator
	err := row.Scan(&in.ID, &in.Name, &in.Category, &in.Description, &in.Status, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Indicator{}, ErrIndicatorNotFound
	}
	return in, err
}

var indicatorSorts = map[string]string{
	"name":      "name",
	"category":  "category",
	"status":    "status",
	"createdAt": "created_at",
}

func (s *Store) ListIndicators(ctx context.Context, ownerID string, q listing.Query) ([]Indicator, int, error) {
	where := listing.NewWhere("created_by = ?", ownerID)
	where.Search(q.Search, "name", "category", "description")
	if q.Status != "" {
		where.Add("status = ?", q.Status)
	}
	if c := q.Filter("category"); c != "" {
		where.Add("category = ?", c)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM performance_indicators"+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, args := where.PageSQL(q, indicatorSorts, "name")
	rows, err := s.DB.Query(ctx, "SELECT "+indicatorColumns+" FROM performance_indicators"+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Indicator{}
	for rows.Next() {
		in, err := scanIndicator(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, in)
	}
	return out, total, rows.Err()
}

func (s *Store) GetIndicator(ctx context.Context, ownerID, id string) (Indicator, error) {
	return scanIndicator(s.DB.QueryRow(ctx, "SELECT "+indicatorColumns+" FROM performance_indicators WHERE created_by = $1 AND id::text = $2", ownerID, id))
}

func (s *Store) CreateIndicator(ctx context.Context, ownerID string, in Indicator) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO performance_indicators (created_by, name, category, description, status)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, ownerID, in.Name, in.Category, in.Description, in.Status).Scan(&id)
	return id, err
}

func (s *Store) UpdateIndicator(ctx context.Context, ownerID string, in Indicator) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE performance_indicators SET name = $3, category = $4, description = $5, status = $6
    WHERE created_by = $1 AND id::text = $2
  `, ownerID, in.ID, in.Name, in.Category, in.Description, in.Status)
	return affected(tag.RowsAffected(), err, ErrIndicatorNotFound)
}

func (s *Store) DeleteIndicator(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM performance_indicators WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag.RowsAffected(), err, ErrIndicatorNotFound)
}

// IndicatorsOwned counts how many of ids are active indicators of ownerID.
func (s *Store) IndicatorsOwned(ctx context.Context, ownerID string, ids []string) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM performance_indicators
    WHERE created_by = $1 AND status = 'active' AND id::text = ANY($2)
  `, ownerID, ids).Scan(&n)
	return n, err
}

const selectReview = `SELECT r.id, r.employee_id, e.name, COALESCE(r.reviewer_id::text, ''), COALESCE(v.name, ''),
  r.review_period, r.review_date, r.overall_rating, r.comments, r.status, r.created_at, r.updated_at`

const fromReview = ` FROM performance_reviews r
  JOIN users e ON e.id = r.employee_id
  LEFT JOIN users v ON v.id = r.reviewer_id`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.EmployeeID, &r.EmployeeName, &r.ReviewerID, &r.ReviewerName,
		&r.Period, &r.Date, &r.OverallRating, &r.Comments, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, ErrReviewNotFound
	}
	return r, err
}

var reviewSorts = map[string]string{
	"employee":      "e.name",
	"reviewPeriod":  "r.review_period",
	"reviewDate":    "r.review_date",
	"overallRating": "r.overall_rating",
	"status":        "r.status",
}

func reviewWhere(scope tenancy.Scope, q listing.Query) *listing.Where {
	where := listing.NewWhere("r.created_by = ?", scope.OwnerID)
	if employeeID := scope.EmployeeFilter(q.Filter("employee_id")); employeeID != "" {
		where.Add("r.employee_id::text = ?", employeeID)
	}
	if scope.SelfOnly {
		where.Add("r.status <> ?", ReviewDraft)
	}
	return where
}

func (s *Store) ListReviews(ctx context.Context, scope tenancy.Scope, q listing.Query) ([]Review, int, error) {
	where := reviewWhere(scope, q)
	where.Search(q.Search, "e.name", "r.review_period", "r.comments")
	if q.Status != "" {
		where.Add("r.status = ?", q.Status)
	}
	if p := q.Filter("review_period"); p != "" {
		where.Add("r.review_period = ?", p)
	}
	if rv := q.Filter("reviewer_id"); rv != "" {
		where.Add("r.reviewer_id::text = ?", rv)
	}
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+fromReview+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	q.Desc = q.Desc || q.Sort == ""
	page, args := where.PageSQL(q, reviewSorts, "r.review_date")
	rows, err := s.DB.Query(ctx, selectReview+fromReview+where.SQL()+page, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *Store) GetReview(ctx context.Context, ownerID, id string) (Review, error) {
	r, err := scanReview(s.DB.QueryRow(ctx, selectReview+fromReview+" WHERE r.created_by = $1 AND r.id::text = $2", ownerID, id))
	if err != nil {
		return Review{}, err
	}
	r.Ratings, err = s.ratings(ctx, r.ID)
	return r, err
}

func (s *Store) ratings(ctx context.Context, reviewID string) ([]Rating, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT rr.indicator_id, i.name, rr.rating, rr.comment
    FROM performance_review_ratings rr JOIN performance_indicators i ON i.id = rr.indicator_id
    WHERE rr.review_id = $1
    ORDER BY i.name
  `, reviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Rating{}
	for rows.Next() {
		var r Rating
		if err := rows.Scan(&r.IndicatorID, &r.IndicatorName, &r.Rating, &r.Comment); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// CreateReview inserts the review and its ratings in one transaction.
func (s *Store) CreateReview(ctx context.Context, ownerID string, r Review) (string, error) {
	var id string
	err := querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		if err := q.QueryRow(ctx, `
      INSERT INTO performance_reviews (created_by, employee_id, reviewer_id, review_period, review_date, overall_rating, comments, status)
      VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
      RETURNING id
    `, ownerID, r.EmployeeID, nullable(r.ReviewerID), r.Period, r.Date, r.OverallRating, r.Comments, r.Status).Scan(&id); err != nil {
			return err
		}
		return replaceRatings(ctx, q, id, r.Ratings)
	})
	return id, err
}

func (s *Store) UpdateReview(ctx context.Context, ownerID string, r Review) error {
	return querier.InTx(ctx, s.DB, func(q querier.Querier) error {
		tag, err := q.Exec(ctx, `
      UPDATE performance_reviews SET employee_id = $3, reviewer_id = $4, review_period = $5, review_date = $6,
        overall_rating = $7, comments = $8, status = $9, updated_at = now()
      WHERE created_by = $1 AND id::text = $2
    `, ownerID, r.ID, r.EmployeeID, nullable(r.ReviewerID), r.Period, r.Date, r.OverallRating, r.Comments, r.Status)
		if err := affected(tag.RowsAffected(), err, ErrReviewNotFound); err != nil {
			return err
		}
		return replaceRatings(ctx, q, r.ID, r.Ratings)
	})
}

func replaceRatings(ctx context.Context, q querier.Querier, reviewID string, ratings []Rating) error {
	if _, err := q.Exec(ctx, "DELETE FROM performance_review_ratings WHERE review_id::text = $1", reviewID); err != nil {
		return err
	}
	for _, r := range ratings {
		if _, err := q.Exec(ctx, `
      INSERT INTO performance_review_ratings (review_id, indicator_id, rating, comment)
      VALUES ($1,$2,$3,$4)
    `, reviewID, r.IndicatorID, r.Rating, r.Comment); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteReview(ctx context.Context, ownerID, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM performance_reviews WHERE created_by = $1 AND id::text = $2", ownerID, id)
	return affected(tag.RowsAffected(), err, ErrReviewNotFound)
}

func (s *Store) StaffExists(ctx context.Context, ownerID, employeeID string) (bool, error) {
	return tenancy.StaffExists(ctx, s.DB, ownerID, employeeID)
}

// SummaryData returns review counts and the overall ratings of reviews that
// are not drafts.
func (s *Store) SummaryData(ctx context.Context, scope tenancy.Scope) (int, int, []decimal.Decimal, error) {
	where := reviewWhere(scope, listing.Query{})
	var total, completed int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1), COUNT(1) FILTER (WHERE r.status = 'completed') FROM performance_reviews r`+where.SQL(),
		where.Args()...).Scan(&total, &completed); err != nil {
		return 0, 0, nil, err
	}
	where.Add("r.status <> ?", ReviewDraft)
	rows, err := s.DB.Query(ctx, "SELECT r.overall_rating FROM performance_reviews r"+where.SQL(), where.Args()...)
	if err != nil {
		return 0, 0, nil, err
	}
	defer rows.Close()

	var ratings []decimal.Decimal
	for rows.Next() {
		var d decimal.Decimal
		if err := rows.Scan(&d); err != nil {
			return 0, 0, nil, err
		}
		ratings = append(ratings, d)
	}
	return total, completed, ratings, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func affected(n int64, err error, notFound error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
