package mint

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/config"
	"github.com/ringops/ringstats/internal/explorer"
	"github.com/ringops/ringstats/internal/metrics"
	"go.uber.org/zap"
)

const TimestampLayout = "2006/01/02 15:04:05"

type Tier string

const (
	TierCache    Tier = "cache"
	TierOperator Tier = "operator"
	TierAddress  Tier = "address"
	TierEventLog Tier = "eventlog"
)

// Provenance is the answer for a minted item. Initiator may be blank when the
// transaction detail could not be fetched.
type Provenance struct {
	MintDate  string
	Initiator string
	TxHash    string
	Tier      Tier
}

type Resolver interface {
	ResolveMint(ctx context.Context, id catalog.ItemID) (Provenance, bool)
	// ResetRun drops explorer batches fetched during the current run.
	ResetRun()
}

type ResolverOptions struct {
	Contract           string
	OperatorWallets    []string
	CandidateAddresses []string
	TransferPageSize   int
	TransferMaxPages   int
	LogPageSize        int
	LogMaxPages        int
	Location           *time.Location
}

func ResolverOptionsFromConfig() ResolverOptions {
	cfg := config.Get()
	return ResolverOptions{
		Contract:           cfg.ContractAddressOrDefault(),
		OperatorWallets:    cfg.OperatorWalletList(),
		CandidateAddresses: cfg.CandidateAddressList(),
		TransferPageSize:   cfg.TransferPageSize(),
		TransferMaxPages:   cfg.TransferMaxPages(),
		LogPageSize:        cfg.LogPageSize(),
		LogMaxPages:        cfg.LogMaxPages(),
		Location:           cfg.Location(),
	}
}

type DefaultResolver struct {
	client  explorer.Client
	decoder explorer.TransferLogsDecoder
	cache   ProvenanceCache
	batches *TransferBatchCache
	opts    ResolverOptions
	now     func() time.Time
}

func NewResolver(client explorer.Client, cache ProvenanceCache, opts ResolverOptions) *DefaultResolver {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.TransferPageSize <= 0 {
		opts.TransferPageSize = 1000
	}
	if opts.TransferMaxPages <= 0 {
		opts.TransferMaxPages = 1
	}
	if opts.LogPageSize <= 0 {
		opts.LogPageSize = 1000
	}
	if opts.LogMaxPages <= 0 {
		opts.LogMaxPages = 1
	}
	opts.Contract = strings.ToLower(opts.Contract)
	return &DefaultResolver{
		client:  client,
		decoder: explorer.NewDefaultTransferLogsDecoder(),
		cache:   cache,
		batches: NewTransferBatchCache(),
		opts:    opts,
		now:     time.Now,
	}
}

type match struct {
	timestamp time.Time
	txHash    string
	sender    string
	tier      Tier
}

func (m *match) earlier(other *match) bool {
	return m == nil || other.timestamp.Before(m.timestamp)
}

func (r *DefaultResolver) ResetRun() {
	r.batches.Reset()
}

func (r *DefaultResolver) ResolveMint(ctx context.Context, id catalog.ItemID) (Provenance, bool) {
	if entry, ok, err := r.cache.Get(ctx, id); err != nil {
		zap.L().Warn("Failed to read mint cache", zap.String("itemId", id.String()), zap.Error(err))
	} else if ok && entry.Complete() {
		metrics.MintResolutionsTotal.WithLabelValues(string(TierCache)).Inc()
		return Provenance{MintDate: entry.MintDate, Initiator: entry.Initiator, TxHash: entry.TxHash, Tier: TierCache}, true
	}

	tokenID := id.TokenID()
	tiers := []func(context.Context, *big.Int) (*match, error){
		r.scanOperatorWallets,
		r.scanCandidateAddresses,
		r.scanEventLogs,
	}

	var found *match
	for _, tier := range tiers {
		m, err := tier(ctx, tokenID)
		if err != nil {
			if errors.Is(err, explorer.ErrNoAPIKey) {
				zap.L().Warn("Explorer api key missing, mint left unresolved", zap.String("itemId", id.String()))
			} else {
				zap.L().Info("Mint resolution interrupted", zap.String("itemId", id.String()), zap.Error(err))
			}
			metrics.MintResolutionsTotal.WithLabelValues("unresolved").Inc()
			return Provenance{}, false
		}
		if m != nil {
			found = m
			break
		}
	}
	if found == nil {
		zap.L().Debug("Mint not found on chain", zap.String("itemId", id.String()))
		metrics.MintResolutionsTotal.WithLabelValues("unresolved").Inc()
		return Provenance{}, false
	}

	prov := Provenance{
		MintDate:  found.timestamp.In(r.opts.Location).Format(TimestampLayout),
		Initiator: r.initiator(ctx, id, found),
		TxHash:    found.txHash,
		Tier:      found.tier,
	}
	metrics.MintResolutionsTotal.WithLabelValues(string(found.tier)).Inc()
	zap.L().Info("Resolved mint",
		zap.String("itemId", id.String()),
		zap.String("tier", string(found.tier)),
		zap.String("txHash", prov.TxHash),
		zap.String("initiator", prov.Initiator),
	)

	if prov.Initiator != "" {
		entry := CacheEntry{
			ItemID:    id,
			MintDate:  prov.MintDate,
			Initiator: prov.Initiator,
			TxHash:    prov.TxHash,
			UpdatedAt: r.now().In(r.opts.Location).Format(TimestampLayout),
		}
		if err := r.cache.Put(ctx, entry); err != nil {
			zap.L().Warn("Failed to write mint cache", zap.String("itemId", id.String()), zap.Error(err))
		}
	}
	return prov, true
}

// initiator prefers the transaction's top-level sender; the transfer sender may be a relayer.
func (r *DefaultResolver) initiator(ctx context.Context, id catalog.ItemID, m *match) string {
	detail, err := r.client.TransactionByHash(ctx, m.txHash)
	if err == nil && detail.From != "" {
		return detail.From
	}
	zap.L().Warn("Failed to fetch mint transaction detail",
		zap.String("itemId", id.String()),
		zap.String("txHash", m.txHash),
		zap.Error(err),
	)
	if m.tier == TierAddress {
		return m.sender
	}
	return ""
}

func (r *DefaultResolver) scanOperatorWallets(ctx context.Context, tokenID *big.Int) (*match, error) {
	var best *match
	for _, wallet := range r.opts.OperatorWallets {
		transfers, err := r.operatorTransfers(ctx, wallet)
		if err != nil {
			return nil, err
		}
		for _, t := range transfers {
			if t.From != explorer.ZeroAddress || t.TokenID.Cmp(tokenID) != 0 {
				continue
			}
			candidate := &match{timestamp: t.Timestamp, txHash: t.Hash, sender: t.From, tier: TierOperator}
			if best.earlier(candidate) {
				best = candidate
			}
		}
	}
	return best, nil
}

func (r *DefaultResolver) operatorTransfers(ctx context.Context, wallet string) ([]explorer.NFTTransfer, error) {
	if transfers, ok := r.batches.Transfers(wallet); ok {
		return transfers, nil
	}

	var all []explorer.NFTTransfer
	for page := 1; page <= r.opts.TransferMaxPages; page++ {
		transfers, err := r.client.NFTTransfers(ctx, r.opts.Contract, wallet, page, r.opts.TransferPageSize)
		if err != nil {
			if errors.Is(err, explorer.ErrNoAPIKey) || ctx.Err() != nil {
				return nil, err
			}
			zap.L().Warn("Failed to fetch operator transfers", zap.String("wallet", wallet), zap.Int("page", page), zap.Error(err))
			break
		}
		all = append(all, transfers...)
		if len(transfers) < r.opts.TransferPageSize {
			break
		}
	}
	r.batches.PutTransfers(wallet, all)
	return all, nil
}

func (r *DefaultResolver) scanCandidateAddresses(ctx context.Context, tokenID *big.Int) (*match, error) {
	var best *match
	for _, address := range r.opts.CandidateAddresses {
		txs, err := r.addressTransactions(ctx, address)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			if tx.IsError || tx.To != r.opts.Contract || !calldataMentionsToken(tx.Input, tokenID) {
				continue
			}
			candidate := &match{timestamp: tx.Timestamp, txHash: tx.Hash, sender: tx.From, tier: TierAddress}
			if best.earlier(candidate) {
				best = candidate
			}
		}
	}
	return best, nil
}

func (r *DefaultResolver) addressTransactions(ctx context.Context, address string) ([]explorer.Transaction, error) {
	if txs, ok := r.batches.Transactions(address); ok {
		return txs, nil
	}
	txs, err := r.client.AddressTransactions(ctx, address)
	if err != nil {
		if errors.Is(err, explorer.ErrNoAPIKey) || ctx.Err() != nil {
			return nil, err
		}
		zap.L().Warn("Failed to fetch address transactions", zap.String("address", address), zap.Error(err))
	}
	r.batches.PutTransactions(address, txs)
	return txs, nil
}

func (r *DefaultResolver) scanEventLogs(ctx context.Context, tokenID *big.Int) (*match, error) {
	events, err := r.transferEvents(ctx)
	if err != nil {
		return nil, err
	}
	var best *match
	for _, ev := range events {
		if ev.TokenID.Cmp(tokenID) != 0 {
			continue
		}
		candidate := &match{timestamp: ev.Timestamp, txHash: ev.TxHash, sender: ev.From, tier: TierEventLog}
		if best.earlier(candidate) {
			best = candidate
		}
	}
	return best, nil
}

func (r *DefaultResolver) transferEvents(ctx context.Context) ([]explorer.TransferEvent, error) {
	if events, ok := r.batches.Events(); ok {
		return events, nil
	}

	var entries []explorer.LogEntry
	for page := 1; page <= r.opts.LogMaxPages; page++ {
		logs, err := r.client.Logs(ctx, r.opts.Contract, explorer.TransferEventSig, page, r.opts.LogPageSize)
		if err != nil {
			if errors.Is(err, explorer.ErrNoAPIKey) || ctx.Err() != nil {
				return nil, err
			}
			zap.L().Warn("Failed to fetch transfer logs", zap.Int("page", page), zap.Error(err))
			break
		}
		entries = append(entries, logs...)
		if len(logs) < r.opts.LogPageSize {
			break
		}
	}
	events := r.decoder.Decode(entries)
	r.batches.PutEvents(events)
	return events, nil
}

// calldataMentionsToken matches tokenID either as a 32-byte argument word or as its
// decimal text inside a string argument.
func calldataMentionsToken(input string, tokenID *big.Int) bool {
	data, err := hexutil.Decode(input)
	if err != nil || len(data) < 4+32 {
		return false
	}
	args := data[4:]
	return containsWord(args, tokenID) || containsDecimal(args, tokenID.String())
}

// containsWord reports whether any 32-byte word of args equals tokenID.
func containsWord(args []byte, tokenID *big.Int) bool {
	word := new(big.Int)
	for offset := 0; offset+32 <= len(args); offset += 32 {
		if word.SetBytes(args[offset:offset+32]).Cmp(tokenID) == 0 {
			return true
		}
	}
	return false
}

// containsDecimal finds digits as a whole number: the bytes around a hit must not be ASCII digits.
func containsDecimal(args []byte, digits string) bool {
	needle := []byte(digits)
	for start := 0; start < len(args); {
		i := bytes.Index(args[start:], needle)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(needle)
		if (i == 0 || !isDigit(args[i-1])) && (end == len(args) || !isDigit(args[end])) {
			return true
		}
		start = i + 1
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
