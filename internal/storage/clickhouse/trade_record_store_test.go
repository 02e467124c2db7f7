package clickhouse

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/storage"
)

func testRecord(id, wallet string, ts int64, dir domain.Direction, token string) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:        id,
		Wallet:         wallet,
		Timestamp:      ts,
		Direction:      dir,
		TokenAddress:   token,
		TokenSymbol:    "WIF",
		NativeAmount:   1.25,
		TokenAmount:    420,
		USDValue:       187.5,
		RealizedPnL:    0.1,
		RealizedPnLUSD: 15,
		Signature:      "sig-" + id,
		FeeTaken:       0.0125,
		SlippageBps:    250,
		PriorityFee:    0.0005,
	}
}

func TestTradeRecordStore_AppendAndGet(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(conn, 0)
	ctx := context.Background()

	rec := testRecord("t-1", "w-1", 1000, domain.DirectionSell, "mint-1")
	require.NoError(t, store.Append(ctx, rec))

	got, err := store.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(conn, 0)
	ctx := context.Background()

	rec := testRecord("t-dup", "w-1", 1000, domain.DirectionBuy, "mint-1")
	require.NoError(t, store.Append(ctx, rec))
	assert.ErrorIs(t, store.Append(ctx, rec), storage.ErrDuplicateKey)
}

func TestTradeRecordStore_NotFound(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(conn, 0)

	_, err := store.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_WindowedReads(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTradeRecordStore(conn, 3)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		require.NoError(t, store.Append(ctx, testRecord(fmt.Sprintf("t-%d", i), "w-1", int64(i*1000), domain.DirectionBuy, "mint-1")))
	}

	recent, err := store.Recent(ctx, "w-1", 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "t-4", recent[0].TradeID)
	assert.Equal(t, "t-2", recent[2].TradeID)

	_, err = store.GetByID(ctx, "t-1")
	assert.ErrorIs(t, err, storage.ErrNotFound, "aged-out record must not be visible")

	buys, err := store.BuysForToken(ctx, "w-1", "mint-1")
	require.NoError(t, err)
	assert.Len(t, buys, 3)
}
