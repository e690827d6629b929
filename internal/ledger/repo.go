package ledger

import (
	"context"

	"github.com/ariefcatur/go-store-engine/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS order_ledger (
	order_id     TEXT PRIMARY KEY,
	user_email   TEXT        NOT NULL,
	total_cents  BIGINT      NOT NULL,
	status       TEXT        NOT NULL,
	source       TEXT        NOT NULL,
	event_id     TEXT        NOT NULL,
	placed_at    TIMESTAMPTZ NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS order_ledger_items (
	order_id          TEXT   NOT NULL REFERENCES order_ledger(order_id),
	product_id        TEXT   NOT NULL,
	name              TEXT   NOT NULL,
	qty               INT    NOT NULL,
	line_total_cents  BIGINT NOT NULL,
	PRIMARY KEY (order_id, product_id)
);`

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.Exec(ctx, schema)
	return err
}

// Record menyimpan order + item dalam satu tx. Event ulang tidak mengubah apa-apa
// (ON CONFLICT DO NOTHING); inserted=false kalau order sudah tercatat.
func (r *Repo) Record(ctx context.Context, eventID, source string, o orders.Order) (inserted bool, err error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		INSERT INTO order_ledger(order_id, user_email, total_cents, status, source, event_id, placed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (order_id) DO NOTHING
	`, o.ID, o.UserEmail, o.TotalCents, string(o.Status), source, eventID, o.CreatedAt)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil // rollback via defer, tidak ada yg berubah
	}

	for _, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_ledger_items(order_id, product_id, name, qty, line_total_cents)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (order_id, product_id) DO NOTHING
		`, o.ID, it.ProductID, it.Name, it.Quantity, it.LineTotalCents); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
