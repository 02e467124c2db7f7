package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
// Rows beyond the per-wallet cap are deleted in the appending transaction.
type TradeRecordStore struct {
	pool *Pool
	cap  int
}

// NewTradeRecordStore creates a new TradeRecordStore.
// historyCap <= 0 uses storage.DefaultHistoryCap.
func NewTradeRecordStore(pool *Pool, historyCap int) *TradeRecordStore {
	if historyCap <= 0 {
		historyCap = storage.DefaultHistoryCap
	}
	return &TradeRecordStore{pool: pool, cap: historyCap}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, wallet, timestamp_ms, direction, token_address, token_symbol,
	native_amount, token_amount, usd_value, realized_pnl, realized_pnl_usd,
	signature, fee_taken, slippage_bps, priority_fee`

// Append inserts r and trims the wallet's history to the cap.
// Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Append(ctx context.Context, r *domain.TradeRecord) (err error) {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}
	start := time.Now()
	defer func() { observe("append_trade", start, err) }()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `INSERT INTO trade_records (` + tradeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, insert,
		r.TradeID, r.Wallet, r.Timestamp, string(r.Direction), r.TokenAddress, r.TokenSymbol,
		r.NativeAmount, r.TokenAmount, r.USDValue, r.RealizedPnL, r.RealizedPnLUSD,
		r.Signature, r.FeeTaken, r.SlippageBps, r.PriorityFee,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}

	trim := `
		DELETE FROM trade_records
		WHERE wallet = $1 AND trade_id NOT IN (
			SELECT trade_id FROM trade_records
			WHERE wallet = $1
			ORDER BY timestamp_ms DESC, seq DESC
			LIMIT $2
		)`
	if _, err = tx.Exec(ctx, trim, r.Wallet, s.cap); err != nil {
		return fmt.Errorf("trim trade history: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (r *domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("get_trade", start, err) }()

	query := `SELECT ` + tradeRecordColumns + ` FROM trade_records WHERE trade_id = $1`

	row := s.pool.QueryRow(ctx, query, tradeID)
	r, err = scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record: %w", err)
	}
	return r, nil
}

// Recent returns up to limit records of wallet, newest first.
func (s *TradeRecordStore) Recent(ctx context.Context, wallet string, limit int) (out []*domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("recent_trades", start, err) }()

	query := `SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE wallet = $1
		ORDER BY timestamp_ms DESC, seq DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, wallet, storage.EffectiveLimit(limit, s.cap))
	if err != nil {
		return nil, fmt.Errorf("query recent trades: %w", err)
	}
	defer rows.Close()

	return collectTradeRecords(rows)
}

// BuysForToken returns wallet's retained buys of token, newest first.
func (s *TradeRecordStore) BuysForToken(ctx context.Context, wallet, token string) (out []*domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("buys_for_token", start, err) }()

	query := `SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE wallet = $1 AND direction = $2 AND token_address = $3
		ORDER BY timestamp_ms DESC, seq DESC`

	rows, err := s.pool.Query(ctx, query, wallet, string(domain.DirectionBuy), token)
	if err != nil {
		return nil, fmt.Errorf("query buys for token: %w", err)
	}
	defer rows.Close()

	return collectTradeRecords(rows)
}

func collectTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var result []*domain.TradeRecord
	for rows.Next() {
		r, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade records: %w", err)
	}
	return result, nil
}

func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var r domain.TradeRecord
	var direction string
	err := row.Scan(
		&r.TradeID, &r.Wallet, &r.Timestamp, &direction, &r.TokenAddress, &r.TokenSymbol,
		&r.NativeAmount, &r.TokenAmount, &r.USDValue, &r.RealizedPnL, &r.RealizedPnLUSD,
		&r.Signature, &r.FeeTaken, &r.SlippageBps, &r.PriorityFee,
	)
	if err != nil {
		return nil, err
	}
	r.Direction = domain.Direction(direction)
	return &r, nil
}
