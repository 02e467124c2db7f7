package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-bot/internal/domain"
	"solana-trade-bot/internal/storage"
)

// TradeRecordStore is an in-memory implementation of storage.TradeRecordStore.
// Each wallet keeps at most cap records; the oldest is dropped on overflow.
type TradeRecordStore struct {
	mu       sync.RWMutex
	cap      int
	byID     map[string]*domain.TradeRecord   // keyed by trade_id
	byWallet map[string][]*domain.TradeRecord // newest first
}

// NewTradeRecordStore creates a new in-memory trade record store.
// historyCap <= 0 uses storage.DefaultHistoryCap.
func NewTradeRecordStore(historyCap int) *TradeRecordStore {
	if historyCap <= 0 {
		historyCap = storage.DefaultHistoryCap
	}
	return &TradeRecordStore{
		cap:      historyCap,
		byID:     make(map[string]*domain.TradeRecord),
		byWallet: make(map[string][]*domain.TradeRecord),
	}
}

// Append adds a new record. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Append(_ context.Context, r *domain.TradeRecord) error {
	if err := storage.ValidateRecord(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[r.TradeID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *r
	list := s.byWallet[r.Wallet]

	// Insert keeping newest-first order; equal timestamps keep append order reversed.
	idx := sort.Search(len(list), func(i int) bool {
		return list[i].Timestamp <= copy.Timestamp
	})
	list = append(list, nil)
	for i := len(list) - 1; i > idx; i-- {
		list[i] = list[i-1]
	}
	list[idx] = &copy

	for len(list) > s.cap {
		dropped := list[len(list)-1]
		delete(s.byID, dropped.TradeID)
		list = list[:len(list)-1]
	}

	s.byWallet[r.Wallet] = list
	if _, kept := s.indexOf(list, copy.TradeID); kept {
		s.byID[copy.TradeID] = &copy
	}
	return nil
}

func (s *TradeRecordStore) indexOf(list []*domain.TradeRecord, tradeID string) (int, bool) {
	for i, r := range list {
		if r.TradeID == tradeID {
			return i, true
		}
	}
	return 0, false
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(_ context.Context, tradeID string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.byID[tradeID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *r
	return &copy, nil
}

// Recent returns up to limit records of wallet, newest first.
func (s *TradeRecordStore) Recent(_ context.Context, wallet string, limit int) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.byWallet[wallet]
	n := storage.EffectiveLimit(limit, s.cap)
	if n > len(list) {
		n = len(list)
	}

	result := make([]*domain.TradeRecord, 0, n)
	for _, r := range list[:n] {
		copy := *r
		result = append(result, &copy)
	}
	return result, nil
}

// BuysForToken returns wallet's retained buys of token, newest first.
func (s *TradeRecordStore) BuysForToken(_ context.Context, wallet, token string) ([]*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TradeRecord
	for _, r := range s.byWallet[wallet] {
		if r.Direction == domain.DirectionBuy && r.TokenAddress == token {
			copy := *r
			result = append(result, &copy)
		}
	}
	return result, nil
}

var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)
