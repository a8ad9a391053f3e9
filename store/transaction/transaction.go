package transaction

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pandodao/drm-wallet/core"
	"github.com/pandodao/generic"
	"github.com/tsenart/nap"
	"github.com/zyedidia/generic/mapset"
)

// Store persists transaction history. Transactions in a terminal status never
// change again, so Find caches them.
type Store struct {
	db    *nap.DB
	codec core.AddressCodec
	final *lru.Cache[string, *core.Transaction]
}

func New(db *nap.DB, codec core.AddressCodec) *Store {
	final, err := lru.New[string, *core.Transaction](1024)
	if err != nil {
		panic(err)
	}

	return &Store{db: db, codec: codec, final: final}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func nullTime(tx *core.Transaction) sql.NullTime {
	if tx.ConfirmedAt == nil {
		return sql.NullTime{}
	}

	return sql.NullTime{Time: *tx.ConfirmedAt, Valid: true}
}

func save(ctx context.Context, r querier, position int, tx *core.Transaction) error {
	b := sq.Replace("transactions").
		Columns(append([]string{"position"}, scanColumns...)...).
		Values(
			position,
			tx.ID,
			tx.From.String(),
			tx.To.String(),
			tx.Amount.String(),
			tx.Asset.Symbol,
			tx.Asset.Precision,
			tx.Status.String(),
			tx.Source,
			tx.CreatedAt.UTC(),
			nullTime(tx),
			tx.BlockHeight,
			tx.FailReason,
			tx.Signature,
		)
	stmt, args := b.MustSql()
	_, err := r.ExecContext(ctx, stmt, args...)
	return err
}

// SaveTx writes the full ordered history with r, usually a *sql.Tx owned by
// the caller. Rows missing from txs are deleted.
func (s *Store) SaveTx(ctx context.Context, r querier, txs []*core.Transaction) error {
	if err := s.prune(ctx, r, txs); err != nil {
		return err
	}

	for position, tx := range txs {
		if err := save(ctx, r, position, tx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) Save(ctx context.Context, txs []*core.Transaction) error {
	tx := generic.Must(s.db.Begin())
	defer tx.Rollback()

	if err := s.SaveTx(ctx, tx, txs); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Find(ctx context.Context, id string) (*core.Transaction, error) {
	if tx, ok := s.final.Get(id); ok {
		return tx.Clone(), nil
	}

	stmt, args := sq.Select(scanColumns...).From("transactions").Where(sq.Eq{"id": id}).MustSql()
	row := s.db.QueryRowContext(ctx, stmt, args...)

	var tx core.Transaction
	if err := scanTransaction(row, s.codec, &tx); err != nil {
		return nil, err
	}

	if tx.Status.IsTerminal() {
		s.final.Add(id, tx.Clone())
	}

	return &tx, nil
}

func (s *Store) List(ctx context.Context, offset, limit int) ([]*core.Transaction, error) {
	return s.ListTx(ctx, s.db, offset, limit)
}

// ListTx pages through history in insertion order. A limit <= 0 lists
// everything from offset.
func (s *Store) ListTx(ctx context.Context, r querier, offset, limit int) ([]*core.Transaction, error) {
	b := sq.Select(scanColumns...).
		From("transactions").
		OrderBy("position")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	if offset > 0 {
		if limit <= 0 {
			// sqlite and mysql both reject OFFSET without LIMIT
			b = b.Limit(1 << 62)
		}
		b = b.Offset(uint64(offset))
	}

	stmt, args := b.MustSql()
	rows, err := r.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	txs := []*core.Transaction{}
	for rows.Next() {
		var tx core.Transaction
		if err := scanTransaction(rows, s.codec, &tx); err != nil {
			return nil, err
		}

		txs = append(txs, &tx)
	}

	return txs, rows.Err()
}

func (s *Store) DeleteAll(ctx context.Context) error {
	return s.DeleteAllTx(ctx, s.db)
}

func (s *Store) DeleteAllTx(ctx context.Context, r querier) error {
	stmt, args := sq.Delete("transactions").MustSql()
	if _, err := r.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}

	s.final.Purge()
	return nil
}

func (s *Store) prune(ctx context.Context, r querier, keep []*core.Transaction) error {
	if len(keep) == 0 {
		return s.DeleteAllTx(ctx, r)
	}

	ids := make([]string, 0, len(keep))
	kept := mapset.New[string]()
	for _, tx := range keep {
		ids = append(ids, tx.ID)
		kept.Put(tx.ID)
	}

	stmt, args := sq.Delete("transactions").Where(sq.NotEq{"id": ids}).MustSql()
	if _, err := r.ExecContext(ctx, stmt, args...); err != nil {
		return err
	}

	for _, id := range s.final.Keys() {
		if !kept.Has(id) {
			s.final.Remove(id)
		}
	}

	return nil
}
