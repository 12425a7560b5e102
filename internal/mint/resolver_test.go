package mint

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ringops/ringstats/internal/catalog"
	"github.com/ringops/ringstats/internal/explorer"
	"github.com/ringops/ringstats/internal/explorer/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testContract = "0x0a77f356cf1de1727145e66c92254881ac3da34b"
	operatorA    = "0x364a2353488a09a6625384c9b0625712afd694ef"
	operatorB    = "0x78a3b0a018b9763a67dcfbae7ba7e2e47b9e341f"
	candidate    = "0x1111111111111111111111111111111111111111"
	initiator    = "0x9999999999999999999999999999999999999999"
)

var (
	item67  = catalog.NewItemID("100000000667", 67)
	item670 = catalog.NewItemID("100000000667", 670)
)

func TestMain(m *testing.M) {
	zap.ReplaceGlobals(zap.NewExample())
	m.Run()
}

func newTestResolver(client explorer.Client, cache ProvenanceCache) *DefaultResolver {
	r := NewResolver(client, cache, ResolverOptions{
		Contract:           testContract,
		OperatorWallets:    []string{operatorA, operatorB},
		CandidateAddresses: []string{candidate},
		TransferPageSize:   2,
		TransferMaxPages:   3,
		LogPageSize:        2,
		LogMaxPages:        2,
		Location:           time.UTC,
	})
	r.now = func() time.Time { return time.Unix(1800000000, 0) }
	return r
}

func mintTransfer(id catalog.ItemID, hash string, ts int64) explorer.NFTTransfer {
	return explorer.NFTTransfer{
		TokenID:   id.TokenID(),
		From:      explorer.ZeroAddress,
		To:        operatorA,
		Hash:      hash,
		Timestamp: time.Unix(ts, 0),
	}
}

func calldata(words ...*big.Int) string {
	data := []byte{0x40, 0xc1, 0x0f, 0x19}
	for _, w := range words {
		data = append(data, common.BigToHash(w).Bytes()...)
	}
	return hexutil.Encode(data)
}

func TestResolveMint_CacheHitMakesNoCalls(t *testing.T) {
	client := mocks.NewClient(t)
	cache := NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), CacheEntry{ItemID: item67, MintDate: "2023/11/14 22:13:20", Initiator: initiator}))

	prov, ok := newTestResolver(client, cache).ResolveMint(context.Background(), item67)

	require.True(t, ok)
	assert.Equal(t, TierCache, prov.Tier)
	assert.Equal(t, initiator, prov.Initiator)
	client.AssertNotCalled(t, "NFTTransfers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "TransactionByHash", mock.Anything, mock.Anything)
}

func TestResolveMint_IncompleteCacheEntryIsAMiss(t *testing.T) {
	client := mocks.NewClient(t)
	cache := NewMemoryCache()
	require.NoError(t, cache.Put(context.Background(), CacheEntry{ItemID: item67, MintDate: "2023/11/14 22:13:20"}))

	client.On("NFTTransfers", mock.Anything, testContract, operatorA, 1, 2).
		Return([]explorer.NFTTransfer{mintTransfer(item67, "0xmint", 1700000000)}, nil).Once()
	client.On("NFTTransfers", mock.Anything, testContract, operatorB, 1, 2).Return(nil, nil).Once()
	client.On("TransactionByHash", mock.Anything, "0xmint").Return(&explorer.TransactionDetail{From: initiator}, nil).Once()

	prov, ok := newTestResolver(client, cache).ResolveMint(context.Background(), item67)

	require.True(t, ok)
	assert.Equal(t, TierOperator, prov.Tier)
}

func TestResolveMint_OperatorTierStopsFallbacks(t *testing.T) {
	client := mocks.NewClient(t)
	cache := NewMemoryCache()

	client.On("NFTTransfers", mock.Anything, testContract, operatorA, 1, 2).Return([]explorer.NFTTransfer{
		mintTransfer(item670, "0xother", 1690000000),
		{TokenID: item67.TokenID(), From: operatorA, To: "0xbuyer", Hash: "0xresale", Timestamp: time.Unix(1710000000, 0)},
	}, nil).Once()
	client.On("NFTTransfers", mock.Anything, testContract, operatorA, 2, 2).Return([]explorer.NFTTransfer{
		mintTransfer(item67, "0xlater", 1700000500),
	}, nil).Once()
	client.On("NFTTransfers", mock.Anything, testContract, operatorB, 1, 2).Return([]explorer.NFTTransfer{
		mintTransfer(item67, "0xmint", 1700000000),
	}, nil).Once()
	client.On("TransactionByHash", mock.Anything, "0xmint").Return(&explorer.TransactionDetail{Hash: "0xmint", From: initiator}, nil).Once()

	prov, ok := newTestResolver(client, cache).ResolveMint(context.Background(), item67)

	require.True(t, ok)
	assert.Equal(t, Provenance{MintDate: "2023/11/14 22:13:20", Initiator: initiator, TxHash: "0xmint", Tier: TierOperator}, prov)
	client.AssertNotCalled(t, "AddressTransactions", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Logs", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	entry, found, err := cache.Get(context.Background(), item67)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "0xmint", entry.TxHash)
	assert.Equal(t, initiator, entry.Initiator)
	assert.Equal(t, "2027/01/15 08:00:00", entry.UpdatedAt)
}

func TestResolveMint_OperatorBatchesAreCachedPerRun(t *testing.T) {
	client := mocks.NewClient(t)

	client.On("NFTTransfers", mock.Anything, testContract, operatorA, 1, 2).Return([]explorer.NFTTransfer{
		mintTransfer(item67, "0xmint67", 1700000000),
		mintTransfer(item670, "0xmint670", 1700000100),
	}, nil).Twice()
	client.On("NFTTransfers", mock.Anything, testContract, operatorA, 2, 2).Return(nil, nil).Twice()
	client.On("NFTTransfers", mock.Anything, testContract, operatorB, 1, 2).Return(nil, nil).Twice()
	client.On("TransactionByHash", mock.Anything, mock.Anything).Return(&explorer.TransactionDetail{From: initiator}, nil)
	client.On("AddressTransactions", mock.Anything, candidate).Return(nil, nil).Once()
	client.On("Logs", mock.Anything, testContract, explorer.TransferEventSig, 1, 2).Return(nil, nil).Once()

	resolver := newTestResolver(client, NewMemoryCache())
	ctx := context.Background()

	_, ok := resolver.ResolveMint(ctx, item67)
	require.True(t, ok)
	_, ok = resolver.ResolveMint(ctx, item670)
	require.True(t, ok)
	client.AssertNumberOfCalls(t, "NFTTransfers", 3)

	resolver.ResetRun()
	_, ok = resolver.ResolveMint(ctx, catalog.NewItemID("100000000667", 1))
	assert.False(t, ok)
	client.AssertNumberOfCalls(t, "NFTTransfers", 6)
}

func TestResolveMint_AddressTierExactMatch(t *testing.T) {
	client := mocks.NewClient(t)

	client.On("NFTTransfers", mock.Anything, testContract, mock.Anything, 1, 2).Return(nil, nil)
	client.On("AddressTransactions", mock.Anything, candidate).Return([]explorer.Transaction{
		// carries 670 only; must not match 67
		{Hash: "0x670", From: "0xaaa", To: testContract, Input: calldata(big.NewInt(1), item670.TokenID()), Timestamp: time.Unix(1600000000, 0)},
		{Hash: "0xwrongcontract", From: "0xaaa", To: "0xelsewhere", Input: calldata(item67.TokenID()), Timestamp: time.Unix(1600000001, 0)},
		{Hash: "0xfailed", From: "0xaaa", To: testContract, Input: calldata(item67.TokenID()), Timestamp: time.Unix(1600000002, 0), IsError: true},
		{Hash: "0xlate", From: "0xbbb", To: testContract, Input: calldata(item67.TokenID()), Timestamp: time.Unix(1700000100, 0)},
		{Hash: "0xearly", From: "0xccc", To: testContract, Input: calldata(big.NewInt(5), item67.TokenID()), Timestamp: time.Unix(1700000000, 0)},
	}, nil).Once()
	client.On("TransactionByHash", mock.Anything, "0xearly").Return(nil, errors.New("boom")).Once()

	cache := NewMemoryCache()
	prov, ok := newTestResolver(client, cache).ResolveMint(context.Background(), item67)

	require.True(t, ok)
	assert.Equal(t, TierAddress, prov.Tier)
	assert.Equal(t, "0xearly", prov.TxHash)
	assert.Equal(t, "0xccc", prov.Initiator)
	client.AssertNotCalled(t, "Logs", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, found, _ := cache.Get(context.Background(), item67)
	assert.True(t, found)
}

func TestResolveMint_EventLogTier(t *testing.T) {
	logEntry := func(id catalog.ItemID, tx string, ts int64) explorer.LogEntry {
		return explorer.LogEntry{
			Topics: []common.Hash{
				explorer.TransferEventSig,
				common.Hash{},
				common.HexToHash(operatorA),
				id.TokenIDHash(),
			},
			TxHash:    common.HexToHash(tx),
			Timestamp: time.Unix(ts, 0),
		}
	}

	t.Run("earliest match with initiator", func(t *testing.T) {
		client := mocks.NewClient(t)
		client.On("NFTTransfers", mock.Anything, testContract, mock.Anything, 1, 2).Return(nil, nil)
		client.On("AddressTransactions", mock.Anything, candidate).Return(nil, nil).Once()
		client.On("Logs", mock.Anything, testContract, explorer.TransferEventSig, 1, 2).Return([]explorer.LogEntry{
			logEntry(item670, "0x01", 1600000000),
			logEntry(item67, "0x02", 1700000100),
		}, nil).Once()
		client.On("Logs", mock.Anything, testContract, explorer.TransferEventSig, 2, 2).Return([]explorer.LogEntry{
			logEntry(item67, "0x03", 1700000000),
		}, nil).Once()
		client.On("TransactionByHash", mock.Anything, common.HexToHash("0x03").Hex()).
			Return(&explorer.TransactionDetail{From: initiator}, nil).Once()

		prov, ok := newTestResolver(client, NewMemoryCache()).ResolveMint(context.Background(), item67)

		require.True(t, ok)
		assert.Equal(t, TierEventLog, prov.Tier)
		assert.Equal(t, initiator, prov.Initiator)
		assert.Equal(t, "2023/11/14 22:13:20", prov.MintDate)
	})

	t.Run("detail failure leaves initiator blank and skips cache", func(t *testing.T) {
		client := mocks.NewClient(t)
		client.On("NFTTransfers", mock.Anything, testContract, mock.Anything, 1, 2).Return(nil, nil)
		client.On("AddressTransactions", mock.Anything, candidate).Return(nil, nil).Once()
		client.On("Logs", mock.Anything, testContract, explorer.TransferEventSig, 1, 2).Return([]explorer.LogEntry{
			logEntry(item67, "0x02", 1700000000),
		}, nil).Once()
		client.On("TransactionByHash", mock.Anything, mock.Anything).Return(nil, explorer.ErrTxNotFound).Once()

		cache := NewMemoryCache()
		prov, ok := newTestResolver(client, cache).ResolveMint(context.Background(), item67)

		require.True(t, ok)
		assert.Equal(t, "2023/11/14 22:13:20", prov.MintDate)
		assert.Empty(t, prov.Initiator)
		_, found, _ := cache.Get(context.Background(), item67)
		assert.False(t, found)
	})
}

func TestResolveMint_Unresolved(t *testing.T) {
	client := mocks.NewClient(t)
	client.On("NFTTransfers", mock.Anything, testContract, mock.Anything, 1, 2).Return(nil, nil)
	client.On("AddressTransactions", mock.Anything, candidate).Return(nil, errors.New("timeout"))
	client.On("Logs", mock.Anything, testContract, explorer.TransferEventSig, 1, 2).Return(nil, nil).Once()

	prov, ok := newTestResolver(client, NewMemoryCache()).ResolveMint(context.Background(), item67)

	assert.False(t, ok)
	assert.Equal(t, Provenance{}, prov)
	client.AssertNotCalled(t, "TransactionByHash", mock.Anything, mock.Anything)
}

func TestResolveMint_MissingAPIKey(t *testing.T) {
	client := mocks.NewClient(t)
	client.On("NFTTransfers", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, explorer.ErrNoAPIKey).Once()

	_, ok := newTestResolver(client, NewMemoryCache()).ResolveMint(context.Background(), item67)

	assert.False(t, ok)
	client.AssertNotCalled(t, "AddressTransactions", mock.Anything, mock.Anything)
	client.AssertNotCalled(t, "Logs", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolveMint_RealClientWithoutKeyMakesNoRequests(t *testing.T) {
	client := explorer.NewClient(nil, "http://127.0.0.1:1", "", 0)

	_, ok := newTestResolver(client, NewMemoryCache()).ResolveMint(context.Background(), item67)
	assert.False(t, ok)
}

func stringCalldata(text string) string {
	data := []byte{0x9f, 0x2b, 0x28, 0x3d}
	data = append(data, common.BigToHash(big.NewInt(32)).Bytes()...)
	data = append(data, common.BigToHash(big.NewInt(int64(len(text)))).Bytes()...)
	padded := make([]byte, (len(text)+31)/32*32)
	copy(padded, text)
	return hexutil.Encode(append(data, padded...))
}

func TestCalldataMentionsToken(t *testing.T) {
	id := item67.TokenID()

	t.Run("argument word", func(t *testing.T) {
		assert.True(t, calldataMentionsToken(calldata(id), id))
		assert.True(t, calldataMentionsToken(calldata(big.NewInt(1), big.NewInt(2), id), id))
		assert.False(t, calldataMentionsToken(calldata(item670.TokenID()), id))
	})

	t.Run("decimal text", func(t *testing.T) {
		assert.True(t, calldataMentionsToken(stringCalldata(`{"id":`+item67.String()+`}`), id))
		assert.True(t, calldataMentionsToken(stringCalldata(item67.String()), id))
		assert.False(t, calldataMentionsToken(stringCalldata(`{"id":`+item670.String()+`}`), id))
		assert.False(t, calldataMentionsToken(stringCalldata("9"+item67.String()), id))
	})

	t.Run("malformed", func(t *testing.T) {
		assert.False(t, calldataMentionsToken("0x40c10f19", id))
		assert.False(t, calldataMentionsToken("not hex", id))
		assert.False(t, calldataMentionsToken("", id))
	})
}
