package explorer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ringops/ringstats/internal/config"
	"github.com/ringops/ringstats/internal/httpclient"
	"github.com/ringops/ringstats/internal/metrics"
	"go.uber.org/zap"
)

var (
	ErrNoAPIKey    = errors.New("explorer api key is not configured")
	ErrExplorer    = errors.New("explorer returned an error")
	ErrTxNotFound  = errors.New("transaction not found")
	noResultPhrase = []string{"no transactions found", "no records found"}
)

type Client interface {
	TransactionByHash(ctx context.Context, hash string) (*TransactionDetail, error)
	AddressTransactions(ctx context.Context, address string) ([]Transaction, error)
	NFTTransfers(ctx context.Context, contract, address string, page, offset int) ([]NFTTransfer, error)
	Logs(ctx context.Context, contract string, topic0 common.Hash, page, offset int) ([]LogEntry, error)
}

type DefaultClient struct {
	http    httpclient.HTTPClient
	baseURL string
	apiKey  string
	delay   time.Duration
}

func NewClient(http httpclient.HTTPClient, baseURL, apiKey string, delay time.Duration) *DefaultClient {
	return &DefaultClient{
		http:    http,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		delay:   delay,
	}
}

func NewClientFromConfig(http httpclient.HTTPClient) *DefaultClient {
	cfg := config.Get()
	return NewClient(http, cfg.ExplorerApiUrlOrDefault(), cfg.ExplorerApiKey, cfg.ExplorerCallDelay())
}

func (c *DefaultClient) TransactionByHash(ctx context.Context, hash string) (*TransactionDetail, error) {
	body, err := c.call(ctx, "eth_getTransactionByHash", url.Values{
		"module": {"proxy"},
		"action": {"eth_getTransactionByHash"},
		"txhash": {hash},
	})
	if err != nil {
		return nil, err
	}

	var resp proxyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode proxy response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrExplorer, resp.Error.Message)
	}
	if resp.Status == "0" {
		return nil, fmt.Errorf("%w: %s", ErrExplorer, resultMessage(resp.Message, resp.Result))
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, ErrTxNotFound
	}

	var raw rawTransactionDetail
	if err := json.Unmarshal(resp.Result, &raw); err != nil {
		return nil, fmt.Errorf("%w: unexpected transaction result %s", ErrExplorer, string(resp.Result))
	}
	blockNumber, _ := parseHexUint(raw.BlockNumber)
	return &TransactionDetail{
		Hash:        strings.ToLower(raw.Hash),
		From:        strings.ToLower(raw.From),
		To:          strings.ToLower(raw.To),
		Input:       raw.Input,
		BlockNumber: blockNumber,
	}, nil
}

func (c *DefaultClient) AddressTransactions(ctx context.Context, address string) ([]Transaction, error) {
	var raws []rawTransaction
	err := c.callList(ctx, "txlist", url.Values{
		"module":     {"account"},
		"action":     {"txlist"},
		"address":    {address},
		"startblock": {"0"},
		"endblock":   {"99999999"},
		"sort":       {"asc"},
	}, &raws)
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(raws))
	for _, raw := range raws {
		ts, err := strconv.ParseInt(raw.TimeStamp, 10, 64)
		if err != nil {
			zap.L().Warn("Skipping transaction with bad timestamp", zap.String("hash", raw.Hash), zap.String("timeStamp", raw.TimeStamp))
			continue
		}
		blockNumber, _ := strconv.ParseUint(raw.BlockNumber, 10, 64)
		txs = append(txs, Transaction{
			Hash:        strings.ToLower(raw.Hash),
			From:        strings.ToLower(raw.From),
			To:          strings.ToLower(raw.To),
			Input:       raw.Input,
			BlockNumber: blockNumber,
			Timestamp:   time.Unix(ts, 0),
			IsError:     raw.IsError == "1",
		})
	}
	return txs, nil
}

func (c *DefaultClient) NFTTransfers(ctx context.Context, contract, address string, page, offset int) ([]NFTTransfer, error) {
	params := url.Values{
		"module":          {"account"},
		"action":          {"tokennfttx"},
		"contractaddress": {contract},
		"page":            {strconv.Itoa(page)},
		"offset":          {strconv.Itoa(offset)},
		"sort":            {"asc"},
	}
	if address != "" {
		params.Set("address", address)
	}

	var raws []rawNFTTransfer
	if err := c.callList(ctx, "tokennfttx", params, &raws); err != nil {
		return nil, err
	}

	transfers := make([]NFTTransfer, 0, len(raws))
	for _, raw := range raws {
		tokenID, ok := new(big.Int).SetString(raw.TokenID, 10)
		if !ok {
			zap.L().Warn("Skipping transfer with bad token id", zap.String("hash", raw.Hash), zap.String("tokenID", raw.TokenID))
			continue
		}
		ts, err := strconv.ParseInt(raw.TimeStamp, 10, 64)
		if err != nil {
			zap.L().Warn("Skipping transfer with bad timestamp", zap.String("hash", raw.Hash), zap.String("timeStamp", raw.TimeStamp))
			continue
		}
		blockNumber, _ := strconv.ParseUint(raw.BlockNumber, 10, 64)
		transfers = append(transfers, NFTTransfer{
			TokenID:     tokenID,
			From:        strings.ToLower(raw.From),
			To:          strings.ToLower(raw.To),
			Hash:        strings.ToLower(raw.Hash),
			BlockNumber: blockNumber,
			Timestamp:   time.Unix(ts, 0),
		})
	}
	return transfers, nil
}

func (c *DefaultClient) Logs(ctx context.Context, contract string, topic0 common.Hash, page, offset int) ([]LogEntry, error) {
	var raws []rawLogEntry
	err := c.callList(ctx, "getLogs", url.Values{
		"module":    {"logs"},
		"action":    {"getLogs"},
		"address":   {contract},
		"fromBlock": {"0"},
		"toBlock":   {"latest"},
		"topic0":    {topic0.Hex()},
		"page":      {strconv.Itoa(page)},
		"offset":    {strconv.Itoa(offset)},
	}, &raws)
	if err != nil {
		return nil, err
	}

	entries := make([]LogEntry, 0, len(raws))
	for _, raw := range raws {
		ts, err := parseHexUint(raw.TimeStamp)
		if err != nil {
			zap.L().Warn("Skipping log with bad timestamp", zap.String("tx", raw.TransactionHash), zap.String("timeStamp", raw.TimeStamp))
			continue
		}
		topics := make([]common.Hash, 0, len(raw.Topics))
		for _, t := range raw.Topics {
			if t == "" {
				continue
			}
			topics = append(topics, common.HexToHash(t))
		}
		data, err := hexutil.Decode(raw.Data)
		if err != nil {
			data = nil
		}
		blockNumber, _ := parseHexUint(raw.BlockNumber)
		logIndex, _ := parseHexUint(raw.LogIndex)
		entries = append(entries, LogEntry{
			Address:     common.HexToAddress(raw.Address),
			Topics:      topics,
			Data:        data,
			TxHash:      common.HexToHash(raw.TransactionHash),
			BlockNumber: blockNumber,
			LogIndex:    logIndex,
			Timestamp:   time.Unix(int64(ts), 0),
		})
	}
	return entries, nil
}

func (c *DefaultClient) callList(ctx context.Context, action string, params url.Values, out interface{}) error {
	body, err := c.call(ctx, action, params)
	if err != nil {
		return err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", action, err)
	}
	if resp.Status != "1" {
		if isNoResult(resp.Message, resp.Result) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrExplorer, resultMessage(resp.Message, resp.Result))
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", action, err)
	}
	return nil
}

// call performs one paced request. The pause follows every attempted call, successful or not.
func (c *DefaultClient) call(ctx context.Context, action string, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	params.Set("apikey", c.apiKey)

	start := time.Now()
	body, err := c.http.GetBytes(ctx, c.baseURL+"?"+params.Encode())
	metrics.ExplorerLatency.WithLabelValues(action).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExplorerCallsTotal.WithLabelValues(action, "error").Inc()
		zap.L().Warn("Explorer call failed", zap.String("action", action), zap.Error(err))
	} else {
		metrics.ExplorerCallsTotal.WithLabelValues(action, "ok").Inc()
	}

	if sleepInterrupted(ctx, c.delay) && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("explorer %s: %w", action, err)
	}
	return body, nil
}

func isNoResult(message string, result json.RawMessage) bool {
	text := strings.ToLower(resultMessage(message, result))
	for _, phrase := range noResultPhrase {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func resultMessage(message string, result json.RawMessage) string {
	var s string
	if err := json.Unmarshal(result, &s); err == nil && s != "" {
		return message + ": " + s
	}
	return message
}

func parseHexUint(s string) (uint64, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(s, 16, 64)
}

func sleepInterrupted(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() != nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
