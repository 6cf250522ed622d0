package node

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var NotFound = fmt.Errorf("not found")

// Log is one raw contract event as returned by eth_getLogs.
type Log struct {
	Address     string         `json:"address"`
	Topics      []string       `json:"topics"`
	Data        string         `json:"data"`
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	TxHash      string         `json:"transactionHash"`
	Index       hexutil.Uint   `json:"logIndex"`
	Removed     bool           `json:"removed"`
}

// Client wraps one chain node: JSON-RPC over HTTP for queries and
// calls, a websocket endpoint for live log subscriptions.
type Client struct {
	*RPC
	ws *ethclient.Client
}

// Dial connects a client to the given RPC and websocket URLs.
func Dial(rpcUrl, wsUrl string) (*Client, error) {
	rpc, err := NewRPC(rpcUrl)
	if err != nil {
		return nil, err
	}
	ws, err := ethclient.Dial(wsUrl)
	if err != nil {
		return nil, err
	}
	return &Client{RPC: rpc, ws: ws}, nil
}

// BlockNumber returns the current chain height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var result hexutil.Uint64
	err := c.CallContext(ctx, &result, "eth_blockNumber")
	return uint64(result), err
}

// FilterLogs returns the logs of one event kind emitted by the
// contract inside the inclusive block range.
func (c *Client) FilterLogs(ctx context.Context, contract, topic string, from, to uint64) ([]*Log, error) {
	var logs []*Log
	err := c.CallContext(ctx, &logs, "eth_getLogs", map[string]interface{}{
		"address":   contract,
		"topics":    []string{topic},
		"fromBlock": hexutil.Uint64(from).String(),
		"toBlock":   hexutil.Uint64(to).String(),
	})
	return logs, err
}

// CallContract executes a read method against the contract at the
// given height, latest when height is zero.
func (c *Client) CallContract(ctx context.Context, contract string, data []byte, height uint64) ([]byte, error) {
	var result hexutil.Bytes
	block := "latest"
	if height > 0 {
		block = hexutil.Uint64(height).String()
	}
	err := c.CallContext(ctx, &result, "eth_call", map[string]interface{}{
		"to":   contract,
		"data": hexutil.Bytes(data).String(),
	}, block)
	return result, err
}

// EventContext fetches the transaction gas usage and block timestamp
// a raw log belongs to, in one batch.
func (c *Client) EventContext(ctx context.Context, txHash string, height uint64) (gasUsed uint64, timestamp int64, err error) {
	receipt := struct {
		GasUsed hexutil.Uint64 `json:"gasUsed"`
	}{}
	header := struct {
		Timestamp hexutil.Uint64 `json:"timestamp"`
	}{}
	reqs := []BatchElem{
		{Method: "eth_getTransactionReceipt", Args: []interface{}{txHash}, Result: &receipt},
		{Method: "eth_getBlockByNumber", Args: []interface{}{hexutil.Uint64(height).String(), false}, Result: &header},
	}
	if err = c.BatchCallContext(ctx, reqs); err != nil {
		return
	}
	for i := range reqs {
		if reqs[i].Error != nil {
			return 0, 0, reqs[i].Error
		}
	}
	return uint64(receipt.GasUsed), int64(header.Timestamp), nil
}

// SubscribeLogs opens a live subscription for one event kind of the
// contract. Delivery stops when the node drops the connection; the
// error channel reports why. There is no reconnect here: the caller
// resumes from its persisted cursor after a restart.
func (c *Client) SubscribeLogs(ctx context.Context, contract, topic string) (<-chan Log, <-chan error, error) {
	raw := make(chan types.Log, 64)
	sub, err := c.ws.SubscribeFilterLogs(ctx, ethereum.FilterQuery{
		Addresses: []common.Address{common.HexToAddress(contract)},
		Topics:    [][]common.Hash{{common.HexToHash(topic)}},
	}, raw)
	if err != nil {
		return nil, nil, err
	}
	logs := make(chan Log, 64)
	errs := make(chan error, 1)
	go func() {
		defer close(logs)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case err := <-sub.Err():
				errs <- err
				return
			case l := <-raw:
				topics := make([]string, len(l.Topics))
				for i := range l.Topics {
					topics[i] = l.Topics[i].Hex()
				}
				logs <- Log{
					Address:     strings.ToLower(l.Address.Hex()),
					Topics:      topics,
					Data:        hexutil.Bytes(l.Data).String(),
					BlockNumber: hexutil.Uint64(l.BlockNumber),
					TxHash:      l.TxHash.Hex(),
					Index:       hexutil.Uint(l.Index),
					Removed:     l.Removed,
				}
			}
		}
	}()
	return logs, errs, nil
}
