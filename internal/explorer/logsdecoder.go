package explorer

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type TransferLogsDecoder interface {
	Decode(entries []LogEntry) []TransferEvent
}

type DefaultTransferLogsDecoder struct{}

func NewDefaultTransferLogsDecoder() *DefaultTransferLogsDecoder {
	return &DefaultTransferLogsDecoder{}
}

// Decode keeps ERC-721 Transfer entries in input order; anything else is dropped.
func (d *DefaultTransferLogsDecoder) Decode(entries []LogEntry) []TransferEvent {
	var events []TransferEvent
	for _, entry := range entries {
		lg := entry.toTypesLog()
		if len(lg.Topics) != 4 || lg.Topics[0] != TransferEventSig {
			continue
		}
		from := common.HexToAddress(lg.Topics[1].Hex())
		to := common.HexToAddress(lg.Topics[2].Hex())
		tokenID := new(big.Int).SetBytes(lg.Topics[3].Bytes())
		events = append(events, TransferEvent{
			From:        strings.ToLower(from.Hex()),
			To:          strings.ToLower(to.Hex()),
			TokenID:     tokenID,
			TxHash:      strings.ToLower(lg.TxHash.Hex()),
			BlockNumber: lg.BlockNumber,
			Timestamp:   entry.Timestamp,
		})
	}
	return events
}

func (e LogEntry) toTypesLog() types.Log {
	return types.Log{
		Address:     e.Address,
		Topics:      e.Topics,
		Data:        e.Data,
		BlockNumber: e.BlockNumber,
		TxHash:      e.TxHash,
		Index:       uint(e.LogIndex),
	}
}
