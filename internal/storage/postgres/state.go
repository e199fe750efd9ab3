package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/polkiloo/creditscore/internal/domain/model"
	"github.com/polkiloo/creditscore/internal/domain/repository"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txState implements repository.State inside one transaction.
type txState struct {
	q         querier
	forUpdate bool
}

var _ repository.State = (*txState)(nil)

const (
	selectMeta   = `SELECT owner, loan_counter, total_users FROM ledger_meta WHERE id = 1`
	selectCredit = `SELECT principal, score, last_updated, total_loans, repaid_loans, defaulted_loans, total_borrowed, total_repaid
                    FROM credit_records`
	selectLoan = `SELECT id, borrower, lender, amount, interest_rate, due_date, repaid, repaid_amount, created_at, defaulted
                  FROM loans WHERE id = $1`
)

func (s *txState) lock(query string) string {
	if s.forUpdate {
		return query + " FOR UPDATE"
	}
	return query
}

func (s *txState) Meta(ctx context.Context) (model.LedgerMeta, bool, error) {
	var (
		owner      string
		counter    int64
		totalUsers int64
	)
	err := s.q.QueryRow(ctx, s.lock(selectMeta)).Scan(&owner, &counter, &totalUsers)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LedgerMeta{}, false, nil
		}
		return model.LedgerMeta{}, false, fmt.Errorf("load ledger meta: %w", err)
	}
	meta := model.LedgerMeta{Owner: model.Principal(owner)}
	if err := decodeUints([]*uint64{&meta.LoanCounter, &meta.TotalUsers}, []int64{counter, totalUsers}); err != nil {
		return model.LedgerMeta{}, false, fmt.Errorf("decode ledger meta: %w", err)
	}
	return meta, true, nil
}

func (s *txState) PutMeta(ctx context.Context, meta model.LedgerMeta) error {
	nums, err := encodeUints(meta.LoanCounter, meta.TotalUsers)
	if err != nil {
		return err
	}
	const query = `INSERT INTO ledger_meta (id, owner, loan_counter, total_users) VALUES (1, $1, $2, $3)
                   ON CONFLICT (id) DO UPDATE SET owner = EXCLUDED.owner,
                       loan_counter = EXCLUDED.loan_counter, total_users = EXCLUDED.total_users`
	if _, err := s.q.Exec(ctx, query, append([]any{meta.Owner.String()}, nums...)...); err != nil {
		return fmt.Errorf("store ledger meta: %w", err)
	}
	return nil
}

func (s *txState) CreditRecord(ctx context.Context, p model.Principal) (*model.CreditRecord, bool, error) {
	row := s.q.QueryRow(ctx, s.lock(selectCredit+` WHERE principal = $1`), p.String())
	rec, err := scanCredit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load credit record %s: %w", p, err)
	}
	return rec, true, nil
}

func (s *txState) PutCreditRecord(ctx context.Context, rec *model.CreditRecord) error {
	nums, err := encodeUints(rec.LastUpdated, rec.TotalLoans, rec.RepaidLoans, rec.DefaultedLoans, rec.TotalBorrowed, rec.TotalRepaid)
	if err != nil {
		return err
	}
	const query = `INSERT INTO credit_records
                       (principal, score, last_updated, total_loans, repaid_loans, defaulted_loans, total_borrowed, total_repaid)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   ON CONFLICT (principal) DO UPDATE SET score = EXCLUDED.score,
                       last_updated = EXCLUDED.last_updated, total_loans = EXCLUDED.total_loans,
                       repaid_loans = EXCLUDED.repaid_loans, defaulted_loans = EXCLUDED.defaulted_loans,
                       total_borrowed = EXCLUDED.total_borrowed, total_repaid = EXCLUDED.total_repaid`
	args := append([]any{rec.Principal.String(), int32(rec.Score)}, nums...)
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store credit record %s: %w", rec.Principal, err)
	}
	return nil
}

func (s *txState) StaleCreditRecords(ctx context.Context, before uint64, limit int) ([]model.CreditRecord, error) {
	height, err := toInt64(before)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, selectCredit+` WHERE last_updated < $1 ORDER BY last_updated, principal LIMIT $2`, height, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale credit records: %w", err)
	}
	defer rows.Close()

	var result []model.CreditRecord
	for rows.Next() {
		rec, err := scanCredit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *txState) Loan(ctx context.Context, id uint64) (*model.LoanRecord, bool, error) {
	key, err := toInt64(id)
	if err != nil {
		return nil, false, nil
	}
	var (
		loan             model.LoanRecord
		borrower, lender string
		nums             [6]int64
	)
	err = s.q.QueryRow(ctx, s.lock(selectLoan), key).Scan(
		&nums[0], &borrower, &lender, &nums[1], &nums[2], &nums[3], &loan.Repaid, &nums[4], &nums[5], &loan.Defaulted,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load loan %d: %w", id, err)
	}
	dst := []*uint64{&loan.ID, &loan.Amount, &loan.InterestRate, &loan.DueDate, &loan.RepaidAmount, &loan.CreatedAt}
	if err := decodeUints(dst, nums[:]); err != nil {
		return nil, false, fmt.Errorf("decode loan %d: %w", id, err)
	}
	loan.Borrower = model.Principal(borrower)
	loan.Lender = model.Principal(lender)
	return &loan, true, nil
}

func (s *txState) PutLoan(ctx context.Context, loan *model.LoanRecord) error {
	nums, err := encodeUints(loan.ID, loan.Amount, loan.InterestRate, loan.DueDate, loan.RepaidAmount, loan.CreatedAt)
	if err != nil {
		return err
	}
	const query = `INSERT INTO loans
                       (id, borrower, lender, amount, interest_rate, due_date, repaid, repaid_amount, created_at, defaulted)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
                   ON CONFLICT (id) DO UPDATE SET repaid = EXCLUDED.repaid,
                       repaid_amount = EXCLUDED.repaid_amount, defaulted = EXCLUDED.defaulted`
	args := []any{
		nums[0], loan.Borrower.String(), loan.Lender.String(), nums[1], nums[2], nums[3],
		loan.Repaid, nums[4], nums[5], loan.Defaulted,
	}
	if _, err := s.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("store loan %d: %w", loan.ID, err)
	}
	return nil
}

func (s *txState) IsAuthorized(ctx context.Context, p model.Principal) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM authorized_reporters WHERE principal = $1)`
	var authorized bool
	if err := s.q.QueryRow(ctx, query, p.String()).Scan(&authorized); err != nil {
		return false, fmt.Errorf("check reporter %s: %w", p, err)
	}
	return authorized, nil
}

func (s *txState) SetAuthorized(ctx context.Context, p model.Principal, authorized bool) error {
	query := `DELETE FROM authorized_reporters WHERE principal = $1`
	if authorized {
		query = `INSERT INTO authorized_reporters (principal) VALUES ($1) ON CONFLICT (principal) DO NOTHING`
	}
	if _, err := s.q.Exec(ctx, query, p.String()); err != nil {
		return fmt.Errorf("update reporter %s: %w", p, err)
	}
	return nil
}

func scanCredit(row pgx.Row) (*model.CreditRecord, error) {
	var (
		rec       model.CreditRecord
		principal string
		score     int32
		nums      [6]int64
	)
	if err := row.Scan(&principal, &score, &nums[0], &nums[1], &nums[2], &nums[3], &nums[4], &nums[5]); err != nil {
		return nil, err
	}
	dst := []*uint64{&rec.LastUpdated, &rec.TotalLoans, &rec.RepaidLoans, &rec.DefaultedLoans, &rec.TotalBorrowed, &rec.TotalRepaid}
	if err := decodeUints(dst, nums[:]); err != nil {
		return nil, err
	}
	if score < 0 {
		return nil, fmt.Errorf("negative stored score %d", score)
	}
	rec.Principal = model.Principal(principal)
	rec.Score = uint32(score)
	return &rec, nil
}
