package explorer

import (
	"encoding/json"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Transfer(address,address,uint256)
var TransferEventSig = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

var ZeroAddress = "0x0000000000000000000000000000000000000000"

type TransactionDetail struct {
	Hash        string
	From        string
	To          string
	Input       string
	BlockNumber uint64
}

type Transaction struct {
	Hash        string
	From        string
	To          string
	Input       string
	BlockNumber uint64
	Timestamp   time.Time
	IsError     bool
}

type NFTTransfer struct {
	TokenID     *big.Int
	From        string
	To          string
	Hash        string
	BlockNumber uint64
	Timestamp   time.Time
}

type LogEntry struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint64
	Timestamp   time.Time
}

// TransferEvent is a decoded ERC-721 Transfer log.
type TransferEvent struct {
	From        string
	To          string
	TokenID     *big.Int
	TxHash      string
	BlockNumber uint64
	Timestamp   time.Time
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

type proxyResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type rawTransactionDetail struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"`
}

type rawTransaction struct {
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	IsError     string `json:"isError"`
}

type rawNFTTransfer struct {
	TokenID     string `json:"tokenID"`
	From        string `json:"from"`
	To          string `json:"to"`
	Hash        string `json:"hash"`
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
}

type rawLogEntry struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TimeStamp       string   `json:"timeStamp"`
	LogIndex        string   `json:"logIndex"`
	TransactionHash string   `json:"transactionHash"`
}
