package mint

import (
	"strings"
	"sync"

	"github.com/ringops/ringstats/internal/explorer"
)

// TransferBatchCache holds explorer batches for the lifetime of one run.
type TransferBatchCache struct {
	mu           sync.RWMutex
	transfers    map[string][]explorer.NFTTransfer
	transactions map[string][]explorer.Transaction
	events       []explorer.TransferEvent
	eventsLoaded bool
}

func NewTransferBatchCache() *TransferBatchCache {
	c := &TransferBatchCache{}
	c.Reset()
	return c
}

func (c *TransferBatchCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers = make(map[string][]explorer.NFTTransfer)
	c.transactions = make(map[string][]explorer.Transaction)
	c.events = nil
	c.eventsLoaded = false
}

func (c *TransferBatchCache) Transfers(address string) ([]explorer.NFTTransfer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	transfers, ok := c.transfers[strings.ToLower(address)]
	return transfers, ok
}

func (c *TransferBatchCache) PutTransfers(address string, transfers []explorer.NFTTransfer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transfers[strings.ToLower(address)] = transfers
}

func (c *TransferBatchCache) Transactions(address string) ([]explorer.Transaction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	txs, ok := c.transactions[strings.ToLower(address)]
	return txs, ok
}

func (c *TransferBatchCache) PutTransactions(address string, txs []explorer.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions[strings.ToLower(address)] = txs
}

func (c *TransferBatchCache) Events() ([]explorer.TransferEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.events, c.eventsLoaded
}

func (c *TransferBatchCache) PutEvents(events []explorer.TransferEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = events
	c.eventsLoaded = true
}
