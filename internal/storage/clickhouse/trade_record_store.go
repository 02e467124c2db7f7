package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using ClickHouse.
// Rows are never deleted; the per-wallet cap is applied as a read window.
type TradeRecordStore struct {
	conn *Conn
	cap  int
}

// NewTradeRecordStore creates a new TradeRecordStore.
// historyCap <= 0 uses storage.DefaultHistoryCap.
func NewTradeRecordStore(conn *Conn, historyCap int) *TradeRecordStore {
	if historyCap <= 0 {
		historyCap = storage.DefaultHistoryCap
	}
	return &TradeRecordStore{conn: conn, cap: historyCap}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, wallet, timestamp_ms, direction, token_address, token_symbol,
	native_amount, token_amount, usd_value, realized_pnl, realized_pnl_usd,
	signature, fee_taken, slippage_bps, priority_fee`

// windowQuery selects the newest ? trade_ids of wallet ?.
const windowQuery = `
	SELECT trade_id FROM trade_records FINAL
	WHERE wallet = ?
	ORDER BY timestamp_ms DESC, inserted_at DESC
	LIMIT ?`

// Append adds a record. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Append(ctx context.Context, r *domain.TradeRecord) (err error) {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}
	start := time.Now()
	defer func() { observe("append_trade", start, err) }()

	// ReplacingMergeTree would silently replace, history is append-only.
	exists, err := s.exists(ctx, r.TradeID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO trade_records (`+tradeRecordColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	err = batch.Append(
		r.TradeID, r.Wallet, r.Timestamp, string(r.Direction), r.TokenAddress, r.TokenSymbol,
		r.NativeAmount, r.TokenAmount, r.USDValue, r.RealizedPnL, r.RealizedPnLUSD,
		r.Signature, r.FeeTaken, int32(r.SlippageBps), r.PriorityFee,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByID retrieves a record inside its wallet's retained window.
// Returns ErrNotFound if missing or aged out.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (r *domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("get_trade", start, err) }()

	query := `SELECT ` + tradeRecordColumns + `
		FROM trade_records FINAL
		WHERE trade_id = ? AND trade_id IN (
			SELECT trade_id FROM trade_records FINAL
			WHERE wallet = (SELECT any(wallet) FROM trade_records WHERE trade_id = ?)
			ORDER BY timestamp_ms DESC, inserted_at DESC
			LIMIT ?
		)`

	rows, err := s.conn.Query(ctx, query, tradeID, tradeID, s.cap)
	if err != nil {
		return nil, fmt.Errorf("query trade by id: %w", err)
	}
	defer rows.Close()

	records, err := scanTradeRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records[0], nil
}

// Recent returns up to limit records of wallet, newest first.
func (s *TradeRecordStore) Recent(ctx context.Context, wallet string, limit int) (out []*domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("recent_trades", start, err) }()

	query := `SELECT ` + tradeRecordColumns + `
		FROM trade_records FINAL
		WHERE wallet = ?
		ORDER BY timestamp_ms DESC, inserted_at DESC
		LIMIT ?`

	rows, err := s.conn.Query(ctx, query, wallet, storage.EffectiveLimit(limit, s.cap))
	if err != nil {
		return nil, fmt.Errorf("query recent trades: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// BuysForToken returns wallet's retained buys of token, newest first.
func (s *TradeRecordStore) BuysForToken(ctx context.Context, wallet, token string) (out []*domain.TradeRecord, err error) {
	start := time.Now()
	defer func() { observe("buys_for_token", start, err) }()

	query := `SELECT ` + tradeRecordColumns + `
		FROM trade_records FINAL
		WHERE wallet = ? AND direction = ? AND token_address = ?
			AND trade_id IN (` + windowQuery + `)
		ORDER BY timestamp_ms DESC, inserted_at DESC`

	rows, err := s.conn.Query(ctx, query, wallet, string(domain.DirectionBuy), token, wallet, s.cap)
	if err != nil {
		return nil, fmt.Errorf("query buys for token: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// exists checks if a record with the given trade_id exists.
func (s *TradeRecordStore) exists(ctx context.Context, tradeID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM trade_records WHERE trade_id = ?`, tradeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanTradeRecords(rows chRows) ([]*domain.TradeRecord, error) {
	var records []*domain.TradeRecord

	for rows.Next() {
		var r domain.TradeRecord
		var direction string
		var slippage int32

		err := rows.Scan(
			&r.TradeID, &r.Wallet, &r.Timestamp, &direction, &r.TokenAddress, &r.TokenSymbol,
			&r.NativeAmount, &r.TokenAmount, &r.USDValue, &r.RealizedPnL, &r.RealizedPnLUSD,
			&r.Signature, &r.FeeTaken, &slippage, &r.PriorityFee,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}

		r.Direction = domain.Direction(direction)
		r.SlippageBps = int(slippage)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return records, nil
}
