package bot

import (
	"sync"

	"solana-trade-bot/internal/swap"
	"solana-trade-bot/internal/trade"
	"solana-trade-bot/internal/wallet"
)

// Settings are a user's trade defaults.
type Settings struct {
	SlippageBps    int
	PriorityFeeSOL float64
}

type session struct {
	signer   *wallet.Signer
	settings Settings
}

// Sessions holds per-user wallets and settings in memory.
// Nothing survives a restart.
type Sessions struct {
	mu       sync.RWMutex
	byUser   map[int64]*session
	defaults Settings
	shared   *wallet.Signer
	// operators may fall back to shared.
	operators map[int64]struct{}
}

// NewSessions creates a session store. shared, when non-nil, is the wallet
// used by the listed operators until they create or import their own.
// Other users never see it.
func NewSessions(defaults Settings, shared *wallet.Signer, operators ...int64) *Sessions {
	defaults.SlippageBps = trade.ClampSlippage(defaults.SlippageBps)
	defaults.PriorityFeeSOL = swap.ClampPriorityFee(defaults.PriorityFeeSOL)
	ops := make(map[int64]struct{}, len(operators))
	for _, id := range operators {
		ops[id] = struct{}{}
	}
	return &Sessions{
		byUser:    make(map[int64]*session),
		defaults:  defaults,
		shared:    shared,
		operators: ops,
	}
}

// Wallet returns the user's signer.
func (s *Sessions) Wallet(user int64) (*wallet.Signer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.byUser[user]; ok && sess.signer != nil {
		return sess.signer, true
	}
	if _, ok := s.operators[user]; ok && s.shared != nil {
		return s.shared, true
	}
	return nil, false
}

// SetWallet binds signer to user, replacing any previous wallet.
func (s *Sessions) SetWallet(user int64, signer *wallet.Signer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(user).signer = signer
}

// Settings returns the user's trade defaults.
func (s *Sessions) Settings(user int64) Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess, ok := s.byUser[user]; ok {
		return sess.settings
	}
	return s.defaults
}

// SetSlippage stores a clamped slippage and returns the stored value.
func (s *Sessions) SetSlippage(user int64, bps int) int {
	bps = trade.ClampSlippage(bps)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(user).settings.SlippageBps = bps
	return bps
}

// SetPriorityFee stores a clamped priority fee and returns the stored value.
func (s *Sessions) SetPriorityFee(user int64, sol float64) float64 {
	sol = swap.ClampPriorityFee(sol)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(user).settings.PriorityFeeSOL = sol
	return sol
}

// get returns the user's session, creating it. Caller holds mu.
func (s *Sessions) get(user int64) *session {
	sess, ok := s.byUser[user]
	if !ok {
		sess = &session{settings: s.defaults}
		s.byUser[user] = sess
	}
	return sess
}
