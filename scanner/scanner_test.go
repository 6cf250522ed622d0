package scanner

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/metadata"
	"marketsync/model"
	"marketsync/node"
)

const (
	testContract = "0xf63f820f4a0bc6e966d61a4b20d24916713ebb95"
	testMarket   = "0xaea699e4da22986eb6fa2d714f5ac737fe93a998"
	testMinter   = "0x00000000000000000000000000000000000000a1"
	testHolder   = "0x00000000000000000000000000000000000000b2"
)

func testDB(t *testing.T) *database.DB {
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.DropTable(gdb))
	require.NoError(t, model.Migrate(gdb))
	return database.New(gdb)
}

// fakeClient serves canned logs and drops the live subscription right
// away, so Run terminates once the backfill is through.
type fakeClient struct {
	head      uint64
	logs      []*node.Log
	windows   [][2]uint64
	uris      map[string]string
	failAt    int //fail the nth window fetch once, 0 for never
	fetches   int
	ctxFailAt int //fail the nth receipt lookup once, 0 for never
	ctxCalls  int
	uriFails  int //fail that many uri read calls
}

func (c *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	return c.head, nil
}

func (c *fakeClient) FilterLogs(ctx context.Context, contract, topic string, from, to uint64) ([]*node.Log, error) {
	c.fetches++
	if c.fetches == c.failAt {
		return nil, fmt.Errorf("transient node error")
	}
	c.windows = append(c.windows, [2]uint64{from, to})
	var out []*node.Log
	for _, raw := range c.logs {
		if !strings.EqualFold(raw.Address, contract) || raw.Topics[0] != topic {
			continue
		}
		if height := uint64(raw.BlockNumber); height >= from && height <= to {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (c *fakeClient) CallContract(ctx context.Context, contract string, data []byte, height uint64) ([]byte, error) {
	if c.uriFails > 0 {
		c.uriFails--
		return nil, fmt.Errorf("transient node error")
	}
	uri := c.uris[hexutil.Bytes(data).String()]
	return stringReturn.Pack(uri)
}

func (c *fakeClient) EventContext(ctx context.Context, txHash string, height uint64) (uint64, int64, error) {
	c.ctxCalls++
	if c.ctxCalls == c.ctxFailAt {
		return 0, 0, fmt.Errorf("429 too many requests")
	}
	return 21000, int64(height) * 10, nil
}

func (c *fakeClient) SubscribeLogs(ctx context.Context, contract, topic string) (<-chan node.Log, <-chan error, error) {
	logs := make(chan node.Log)
	errs := make(chan error, 1)
	errs <- fmt.Errorf("connection closed")
	return logs, errs, nil
}

func topicFor(address string) string {
	return "0x000000000000000000000000" + strings.TrimPrefix(address, "0x")
}

func topicId(id int64) string {
	return hexutil.Encode(big.NewInt(id).FillBytes(make([]byte, 32)))
}

// transferLog builds a raw ERC721 Transfer log.
func transferLog(from, to string, tokenId, height int64, logIndex uint) *node.Log {
	return &node.Log{
		Address: testContract,
		Topics: []string{
			KindTransfer.Topic(),
			topicFor(from),
			topicFor(to),
			topicId(tokenId),
		},
		Data:        "0x",
		BlockNumber: hexutil.Uint64(height),
		TxHash:      fmt.Sprintf("0x%064x", height*1000+int64(logIndex)),
		Index:       hexutil.Uint(logIndex),
	}
}

func testStream() Stream {
	return Stream{
		Chain:        conf.ChainELA,
		Contract:     testContract,
		Kind:         KindTransfer,
		Market:       testMarket,
		DeployHeight: 0,
		Step:         2000,
		StepInterval: time.Millisecond,
	}
}

func newTestScanner(db *database.DB, client *fakeClient, stream Stream) *Scanner {
	resolver := metadata.NewResolver("http://gateway.invalid/ipfs/", "", 3, nil)
	norm := NewNormalizer(db, map[conf.Chain]ChainClient{conf.ChainELA: client}, resolver)
	return NewScanner(client, db, norm, stream)
}

func TestBackfillWindows(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{
		head: 10000,
		logs: []*node.Log{
			transferLog(conf.BurnAddress, testMinter, 1, 150, 0),
			transferLog(conf.BurnAddress, testMinter, 2, 4500, 0),
			transferLog(conf.BurnAddress, testMinter, 3, 9999, 0),
		},
		uris: map[string]string{},
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	require.Len(t, client.windows, 5, "10000 blocks in windows of 2000")
	assert.Equal(t, [2]uint64{1, 2000}, client.windows[0])
	assert.Equal(t, [2]uint64{8001, 10000}, client.windows[4])

	height, err := db.CursorHeight(string(conf.ChainELA), testContract, string(KindTransfer), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, height)

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}

func TestBackfillRetriesSameWindow(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{
		head:   10000,
		logs:   []*node.Log{transferLog(conf.BurnAddress, testMinter, 1, 4500, 0)},
		uris:   map[string]string{},
		failAt: 3,
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	// the failed third window is fetched again with the same bounds
	require.Len(t, client.windows, 5)
	assert.Equal(t, [2]uint64{4001, 6000}, client.windows[2])

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// A node failure inside event processing must hold the cursor back and
// retry the window; the event is only lost if the cursor moves past it.
func TestBackfillRetriesFailedEvent(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{
		head:      3000,
		logs:      []*node.Log{transferLog(conf.BurnAddress, testMinter, 1, 1500, 0)},
		uris:      map[string]string{},
		ctxFailAt: 1,
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	// the first window is fetched twice, once more after the failed
	// receipt lookup
	require.Len(t, client.windows, 3)
	assert.Equal(t, [2]uint64{1, 2000}, client.windows[0])
	assert.Equal(t, [2]uint64{1, 2000}, client.windows[1])
	assert.Equal(t, [2]uint64{2001, 3000}, client.windows[2])

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "the mint still lands")

	height, err := db.CursorHeight(string(conf.ChainELA), testContract, string(KindTransfer), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, height)
}

// A log whose payload cannot be decoded is dropped without stalling
// the stream.
func TestBackfillDropsMalformedEvent(t *testing.T) {
	db := testDB(t)
	bad := &node.Log{
		Address:     testContract,
		Topics:      []string{KindTransfer.Topic(), topicFor(testMinter)}, //missing topics
		Data:        "0x",
		BlockNumber: 500,
		TxHash:      "0xbeef",
	}
	client := &fakeClient{
		head: 3000,
		logs: []*node.Log{bad, transferLog(conf.BurnAddress, testMinter, 1, 1600, 0)},
		uris: map[string]string{},
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	require.Len(t, client.windows, 2, "no retries for a malformed log")

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	height, err := db.CursorHeight(string(conf.ChainELA), testContract, string(KindTransfer), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3000, height)
}

func TestResumeAfterCrashNoDuplicates(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{
		head: 10000,
		logs: []*node.Log{
			transferLog(conf.BurnAddress, testMinter, 1, 150, 0),
			transferLog(conf.BurnAddress, testMinter, 2, 6400, 0),
		},
		uris: map[string]string{},
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	// simulate a crash after the events landed but with the cursor
	// still behind, then a fresh start over the same range
	require.NoError(t, db.AdvanceCursor(string(conf.ChainELA), testContract, string(KindTransfer), 0))
	require.NoError(t, db.Model(&model.SyncCursor{}).
		Where("chain=? AND contract=?", string(conf.ChainELA), testContract).
		Update("last_height", 6000).Error)

	restarted := &fakeClient{head: 10000, logs: client.logs, uris: map[string]string{}}
	newTestScanner(db, restarted, testStream()).Run(context.Background())

	var tokens, events int64
	require.NoError(t, db.Model(&model.Token{}).Count(&tokens).Error)
	require.NoError(t, db.Model(&model.TokenEvent{}).Count(&events).Error)
	assert.EqualValues(t, 2, tokens)
	assert.EqualValues(t, 2, events)

	height, err := db.CursorHeight(string(conf.ChainELA), testContract, string(KindTransfer), 0)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, height)
}

func TestSmallGapSkipsBackfill(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.AdvanceCursor(string(conf.ChainELA), testContract, string(KindTransfer), 9500))
	client := &fakeClient{
		head: 10000,
		logs: []*node.Log{transferLog(conf.BurnAddress, testMinter, 1, 9800, 0)},
		uris: map[string]string{},
	}
	newTestScanner(db, client, testStream()).Run(context.Background())

	// the remainder is closed in a single pass on the way to live
	require.Len(t, client.windows, 1)
	assert.Equal(t, [2]uint64{9501, 10000}, client.windows[0])

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
