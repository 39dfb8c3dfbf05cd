package coupons

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JaimeStill/warden/pkg/pagination"
	"github.com/JaimeStill/warden/pkg/repository"
)

// couponColumns is the select list read by scanCoupon, in scan order.
const couponColumns = "id, code, status, rewards, votes_up, votes_down, submitted_by, added_on, last_updated, expired_on"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type postgresStore struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// NewPostgresStore creates a Store backed by the coupons table in schema.
func NewPostgresStore(db *sql.DB, schema string, logger *slog.Logger) Store {
	return &postgresStore{
		db:     db,
		table:  pgx.Identifier{schema, "coupons"}.Sanitize(),
		logger: logger.With("store", "postgres"),
	}
}

func (s *postgresStore) ScanByStatus(ctx context.Context, status Status) ([]Coupon, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE status = $1 ORDER BY added_on, id", couponColumns, s.table)

	rows, err := s.db.QueryContext(ctx, q, string(status))
	if err != nil {
		return nil, fmt.Errorf("query %s coupons: %w", status, err)
	}
	result, err := repository.Drain(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("read %s coupons: %w", status, err)
	}
	return result, nil
}

func (s *postgresStore) List(
	ctx context.Context,
	page pagination.Request,
	filters Filters,
) (*pagination.Result[Coupon], error) {
	countSQL, pageSQL, args := listStatements(s.table, page, filters)

	var total int
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count coupons: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, pageSQL, args...)
	if err != nil {
		return nil, fmt.Errorf("query coupons: %w", err)
	}
	items, err := repository.Drain(rows, scanCoupon)
	if err != nil {
		return nil, fmt.Errorf("read coupons: %w", err)
	}

	result := pagination.NewResult(items, total, page)
	return &result, nil
}

func (s *postgresStore) Find(ctx context.Context, id string) (*Coupon, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", couponColumns, s.table)

	c, err := repository.One(s.db.QueryRowContext(ctx, q, id), scanCoupon, ErrNotFound, ErrDuplicate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *postgresStore) Expire(ctx context.Context, id string, at time.Time) error {
	q := fmt.Sprintf(`
		UPDATE %s
		SET status = $2, last_updated = $3, expired_on = $3
		WHERE id = $1 AND status = $4`, s.table)

	n, err := repository.Affected(s.db.ExecContext(ctx, q, id, string(StatusExpired), at.UTC(), string(StatusValid)))
	if err != nil {
		return fmt.Errorf("expire coupon %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotValid
	}
	return nil
}

func (s *postgresStore) Vote(ctx context.Context, cmd VoteCommand, at time.Time) (*Coupon, error) {
	up, down := cmd.Deltas()

	q := fmt.Sprintf(`
		UPDATE %s
		SET votes_up = votes_up + $2, votes_down = votes_down + $3, last_updated = $4
		WHERE id = $1
		RETURNING %s`, s.table, couponColumns)

	row := s.db.QueryRowContext(ctx, q, cmd.CouponID, up, down, at.UTC())
	c, err := repository.One(row, scanCoupon, ErrNotFound, ErrDuplicate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// listStatements renders the count and page queries for a listing. Both
// share args; the page query orders newest first and appends LIMIT and
// OFFSET as literals.
func listStatements(table string, page pagination.Request, filters Filters) (count, list string, args []any) {
	var where []string
	bind := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}

	if filters.Status != nil {
		bind("status = ?", string(*filters.Status))
	}
	if filters.Code != nil && *filters.Code != "" {
		bind(`code ILIKE ? ESCAPE '\'`, contains(*filters.Code))
	}
	if page.Search != "" {
		bind(`(code ILIKE ? ESCAPE '\' OR submitted_by ILIKE ? ESCAPE '\')`, contains(page.Search))
	}

	from := table
	if len(where) > 0 {
		from += " WHERE " + strings.Join(where, " AND ")
	}

	count = "SELECT COUNT(*) FROM " + from
	list = fmt.Sprintf(
		"SELECT %s FROM %s ORDER BY added_on DESC, id LIMIT %d OFFSET %d",
		couponColumns, from, page.PageSize, page.Offset(),
	)
	return count, list, args
}

func contains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func scanCoupon(s repository.Row) (Coupon, error) {
	var (
		c           Coupon
		rewards     []byte
		submittedBy sql.NullString
	)

	err := s.Scan(
		&c.ID,
		&c.Code,
		&c.Status,
		&rewards,
		&c.Votes.Up,
		&c.Votes.Down,
		&submittedBy,
		&c.AddedOn,
		&c.LastUpdated,
		&c.ExpiredOn,
	)
	if err != nil {
		return c, err
	}

	c.SubmittedBy = submittedBy.String
	c.Rewards = []Reward{}
	if len(rewards) > 0 {
		if err := json.Unmarshal(rewards, &c.Rewards); err != nil {
			return c, fmt.Errorf("decode rewards for %s: %w", c.ID, err)
		}
	}
	return c, nil
}
