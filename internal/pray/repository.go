package pray

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists prayer requests and their payment records. Every
// operation touching both tables runs in a single transaction.
type Repository interface {
	Create(ctx context.Context, p Pray, payment Payment) (Pray, Payment, error)
	Get(ctx context.Context, id int64) (Pray, error)
	Delete(ctx context.Context, id int64) error
	PaymentByPray(ctx context.Context, prayID int64) (Payment, error)
	ListUnpaid(ctx context.Context) ([]Payment, error)
	ListPaid(ctx context.Context, category Category) ([]Pray, error)
	// MarkPaid moves the payment and its pray to paid. It reports false when
	// both were already paid and returns ErrNotFound when the pray is gone.
	MarkPaid(ctx context.Context, payment Payment) (bool, error)
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed pray repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const prayColumns = `id, user_id, live_names, rip_names, type_pray, created_at, status_payment`

const paymentColumns = `id, ex_id, url_pay, user_id, pray, amount, currency, status_payment`

// Create inserts the pray and its payment record together.
func (r *PostgresRepository) Create(ctx context.Context, p Pray, payment Payment) (Pray, Payment, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Pray{}, Payment{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := tx.QueryRow(ctx, `INSERT INTO pray (user_id, live_names, rip_names, type_pray, created_at, status_payment)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.UserID, p.LiveNames, p.RipNames, string(p.Category), p.CreatedAt.UTC(), p.Status).Scan(&p.ID); err != nil {
		return Pray{}, Payment{}, fmt.Errorf("insert pray: %w", err)
	}

	payment.PrayID = p.ID
	if err := tx.QueryRow(ctx, `INSERT INTO payments (ex_id, url_pay, user_id, pray, amount, currency, status_payment)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		payment.BillID, payment.PayURL, payment.UserID, payment.PrayID, payment.Amount, payment.Currency, payment.Status).Scan(&payment.ID); err != nil {
		return Pray{}, Payment{}, fmt.Errorf("insert payment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Pray{}, Payment{}, err
	}
	return p, payment, nil
}

// Get fetches a pray by id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (Pray, error) {
	p, err := scanPray(r.db.QueryRow(ctx, `SELECT `+prayColumns+` FROM pray WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Pray{}, ErrNotFound
	}
	return p, err
}

// Delete removes the pray and its payment record.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE pray = $1`, id); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	cmd, err := tx.Exec(ctx, `DELETE FROM pray WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pray: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// PaymentByPray fetches the payment record linked to the pray.
func (r *PostgresRepository) PaymentByPray(ctx context.Context, prayID int64) (Payment, error) {
	payment, err := scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE pray = $1`, prayID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	return payment, err
}

// ListUnpaid returns every payment record still awaiting confirmation.
func (r *PostgresRepository) ListUnpaid(ctx context.Context) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE status_payment = $1 ORDER BY id`, StatusUnpaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, payment)
	}
	return out, rows.Err()
}

// ListPaid returns the paid prays of a category, oldest first.
func (r *PostgresRepository) ListPaid(ctx context.Context, category Category) ([]Pray, error) {
	rows, err := r.db.Query(ctx, `SELECT `+prayColumns+` FROM pray WHERE type_pray = $1 AND status_payment = $2 ORDER BY id`,
		string(category), StatusPaid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pray
	for rows.Next() {
		p, err := scanPray(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkPaid flips both rows to paid in one transaction.
func (r *PostgresRepository) MarkPaid(ctx context.Context, payment Payment) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var prayID int64
	if err := tx.QueryRow(ctx, `SELECT id FROM pray WHERE id = $1 FOR UPDATE`, payment.PrayID).Scan(&prayID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, err
	}

	paymentCmd, err := tx.Exec(ctx, `UPDATE payments SET status_payment = $1 WHERE id = $2 AND status_payment <> $1`, StatusPaid, payment.ID)
	if err != nil {
		return false, fmt.Errorf("update payment: %w", err)
	}
	prayCmd, err := tx.Exec(ctx, `UPDATE pray SET status_payment = $1 WHERE id = $2 AND status_payment <> $1`, StatusPaid, prayID)
	if err != nil {
		return false, fmt.Errorf("update pray: %w", err)
	}

	changed := paymentCmd.RowsAffected() > 0 || prayCmd.RowsAffected() > 0
	if !changed {
		return false, nil
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func scanPray(row pgx.Row) (Pray, error) {
	var (
		p        Pray
		category string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.LiveNames, &p.RipNames, &category, &p.CreatedAt, &p.Status); err != nil {
		return Pray{}, err
	}
	p.Category = Category(category)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func scanPayment(row pgx.Row) (Payment, error) {
	var payment Payment
	err := row.Scan(&payment.ID, &payment.BillID, &payment.PayURL, &payment.UserID, &payment.PrayID,
		&payment.Amount, &payment.Currency, &payment.Status)
	return payment, err
}
