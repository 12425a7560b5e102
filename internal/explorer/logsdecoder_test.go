package explorer

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_ERC721Transfer(t *testing.T) {
	decoder := NewDefaultTransferLogsDecoder()
	ts := time.Unix(1700000000, 0)

	entries := []LogEntry{
		{
			Topics: []common.Hash{
				TransferEventSig,
				common.HexToHash("0x0"),
				common.HexToHash("0x364a2353488a09a6625384c9b0625712afd694ef"),
				common.HexToHash("0x9184e73a4cf"),
			},
			TxHash:      common.HexToHash("0xabc"),
			BlockNumber: 10,
			Timestamp:   ts,
		},
		{
			// wrong signature
			Topics: []common.Hash{
				common.HexToHash("0x1234"),
				common.HexToHash("0x0"),
				common.HexToHash("0x1"),
				common.HexToHash("0x2"),
			},
		},
		{
			// ERC-20 style transfer without an indexed token id
			Topics: []common.Hash{TransferEventSig, common.HexToHash("0x0"), common.HexToHash("0x1")},
		},
	}

	events := decoder.Decode(entries)
	require.Len(t, events, 1)
	assert.Equal(t, ZeroAddress, events[0].From)
	assert.Equal(t, "0x364a2353488a09a6625384c9b0625712afd694ef", events[0].To)
	assert.Equal(t, "10000000066767", events[0].TokenID.String())
	assert.Equal(t, uint64(10), events[0].BlockNumber)
	assert.Equal(t, ts, events[0].Timestamp)
	assert.Equal(t, common.HexToHash("0xabc").Hex(), events[0].TxHash)
}

func TestDecode_Empty(t *testing.T) {
	assert.Empty(t, NewDefaultTransferLogsDecoder().Decode(nil))
}
