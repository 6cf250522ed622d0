package scanner

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsync/conf"
	"marketsync/database"
	"marketsync/metadata"
	"marketsync/model"
	"marketsync/node"
)

const testSeller = "0x00000000000000000000000000000000000000c3"
const testBuyer = "0x00000000000000000000000000000000000000d4"

func newTestNormalizer(db *database.DB, client *fakeClient) *Normalizer {
	resolver := metadata.NewResolver("http://gateway.invalid/ipfs/", "", 3, nil)
	return NewNormalizer(db, map[conf.Chain]ChainClient{conf.ChainELA: client}, resolver)
}

func packData(t *testing.T, kind EventKind, values ...interface{}) string {
	data, err := dataLayouts[kind].Pack(values...)
	require.NoError(t, err)
	return hexutil.Bytes(data).String()
}

func orderStream() Stream {
	return Stream{
		Chain:    conf.ChainELA,
		Contract: testMarket,
		Market:   testMarket,
	}
}

func forSaleLog(t *testing.T, orderId, tokenId, height int64, logIndex uint) *node.Log {
	return &node.Log{
		Address: testMarket,
		Topics: []string{
			KindOrderForSale.Topic(),
			topicFor(testSeller),
			topicId(orderId),
		},
		Data: packData(t, KindOrderForSale,
			common.HexToAddress(testContract), //baseToken
			big.NewInt(tokenId),
			big.NewInt(1),                       //amount
			common.Address{},                    //quoteToken, native coin
			big.NewInt(1000),                    //price
		),
		BlockNumber: hexutil.Uint64(height),
		TxHash:      common.BigToHash(big.NewInt(height*1000 + int64(logIndex))).Hex(),
		Index:       hexutil.Uint(logIndex),
	}
}

func filledLog(t *testing.T, orderId, height int64, logIndex uint) *node.Log {
	return &node.Log{
		Address: testMarket,
		Topics: []string{
			KindOrderFilled.Topic(),
			topicFor(testSeller),
			topicFor(testBuyer),
			topicId(orderId),
		},
		Data: packData(t, KindOrderFilled,
			big.NewInt(1000), //price
			big.NewInt(20),   //royalty
			big.NewInt(10),   //platform fee
		),
		BlockNumber: hexutil.Uint64(height),
		TxHash:      common.BigToHash(big.NewInt(height*1000 + int64(logIndex))).Hex(),
		Index:       hexutil.Uint(logIndex),
	}
}

func TestOrderLifecycle(t *testing.T) {
	db := testDB(t)
	norm := newTestNormalizer(db, &fakeClient{})
	ctx := context.Background()
	stream := orderStream()

	stream.Kind = KindOrderForSale
	require.NoError(t, norm.Handle(ctx, stream, forSaleLog(t, 9, 7, 100, 0)))
	stream.Kind = KindOrderFilled
	require.NoError(t, norm.Handle(ctx, stream, filledLog(t, 9, 110, 1)))

	order, err := db.GetOrder(string(conf.ChainELA), testContract, 9)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateFilled, order.OrderState)
	assert.Equal(t, testBuyer, order.BuyerAddr)
	assert.Equal(t, "1000", order.Filled)

	var events int64
	require.NoError(t, db.Model(&model.OrderEvent{}).Count(&events).Error)
	assert.EqualValues(t, 2, events)
}

// A fill observed before its creation event parks the update on the
// retry queue; once the creation lands, the parked write converges the
// order to the same terminal state.
func TestFilledBeforeCreated(t *testing.T) {
	db := testDB(t)
	norm := newTestNormalizer(db, &fakeClient{})
	ctx := context.Background()
	stream := orderStream()

	stream.Kind = KindOrderFilled
	require.NoError(t, norm.Handle(ctx, stream, filledLog(t, 9, 110, 1)))

	jobs, err := db.DueJobs(10)
	require.NoError(t, err)
	require.Len(t, jobs, 0, "the job waits out its delay first")
	pending, err := db.PendingJobs()
	require.NoError(t, err)
	require.EqualValues(t, 1, pending)

	stream.Kind = KindOrderForSale
	require.NoError(t, norm.Handle(ctx, stream, forSaleLog(t, 9, 7, 100, 0)))

	var job model.RetryJob
	require.NoError(t, db.Where("kind=?", model.JobUpdateOrder).First(&job).Error)
	done, err := norm.Execute(job.Kind, job.Payload)
	require.NoError(t, err)
	assert.True(t, done)

	order, err := db.GetOrder(string(conf.ChainELA), testContract, 9)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateFilled, order.OrderState)
	assert.Equal(t, testBuyer, order.BuyerAddr)
}

func TestTransferBeforeMint(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{uris: map[string]string{}}
	norm := newTestNormalizer(db, client)
	ctx := context.Background()
	stream := testStream()

	require.NoError(t, norm.Handle(ctx, stream, transferLog(testMinter, testHolder, 7, 120, 0)))

	pending, err := db.PendingJobs()
	require.NoError(t, err)
	require.EqualValues(t, 1, pending, "owner change parked until the mint lands")

	require.NoError(t, norm.Handle(ctx, stream, transferLog(conf.BurnAddress, testMinter, 7, 100, 0)))

	var job model.RetryJob
	require.NoError(t, db.Where("kind=?", model.JobUpdateTokenOwner).First(&job).Error)
	done, err := norm.Execute(job.Kind, job.Payload)
	require.NoError(t, err)
	assert.True(t, done)

	token, err := db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Equal(t, testHolder, token.TokenOwner)
}

func TestMintMarksDetailPending(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{uris: map[string]string{
		hexutil.Bytes(callData("tokenURI(uint256)", big.NewInt(7))).String(): "pasar:json:QmTokenHash",
	}}
	norm := newTestNormalizer(db, client)
	stream := testStream()

	require.NoError(t, norm.Handle(context.Background(), stream, transferLog(conf.BurnAddress, testMinter, 7, 100, 0)))

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	token, err := db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Equal(t, testMinter, token.TokenOwner)
	assert.Equal(t, "pasar:json:QmTokenHash", token.TokenUri)
	assert.True(t, token.NotGetDetail, "metadata resolution is deferred to the filler")
	assert.EqualValues(t, 100, token.BlockNumber)
}

// When the uri read call fails at mint time the row lands without a
// uri, out of the detail filler's view. The parked fetch restores it.
func TestMintUriReadFailureParksFetch(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{
		uris: map[string]string{
			hexutil.Bytes(callData("tokenURI(uint256)", big.NewInt(7))).String(): "pasar:json:QmTokenHash",
		},
		uriFails: 1,
	}
	norm := newTestNormalizer(db, client)
	stream := testStream()

	require.NoError(t, norm.Handle(context.Background(), stream, transferLog(conf.BurnAddress, testMinter, 7, 100, 0)))

	token, err := db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Empty(t, token.TokenUri)
	assert.False(t, token.NotGetDetail)

	var job model.RetryJob
	require.NoError(t, db.Where("kind=?", model.JobFetchTokenUri).First(&job).Error)
	done, err := norm.Execute(job.Kind, job.Payload)
	require.NoError(t, err)
	assert.True(t, done)

	token, err = db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Equal(t, "pasar:json:QmTokenHash", token.TokenUri)
	assert.True(t, token.NotGetDetail, "back in the detail filler's view")
}

func TestBurnKeepsRow(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{uris: map[string]string{}}
	norm := newTestNormalizer(db, client)
	ctx := context.Background()
	stream := testStream()

	require.NoError(t, norm.Handle(ctx, stream, transferLog(conf.BurnAddress, testMinter, 7, 100, 0)))
	require.NoError(t, norm.Handle(ctx, stream, transferLog(testMinter, conf.BurnAddress, 7, 120, 0)))

	token, err := db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Equal(t, conf.BurnAddress, token.TokenOwner)

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEscrowTransferKeepsOwner(t *testing.T) {
	db := testDB(t)
	client := &fakeClient{uris: map[string]string{}}
	norm := newTestNormalizer(db, client)
	ctx := context.Background()
	stream := testStream()

	require.NoError(t, norm.Handle(ctx, stream, transferLog(conf.BurnAddress, testMinter, 7, 100, 0)))
	require.NoError(t, norm.Handle(ctx, stream, transferLog(testMinter, testMarket, 7, 120, 0)))

	token, err := db.GetToken(string(conf.ChainELA), testContract, "7")
	require.NoError(t, err)
	assert.Equal(t, testMinter, token.TokenOwner, "escrow moves do not change the logical owner")
}

func TestMalformedLogRejected(t *testing.T) {
	db := testDB(t)
	norm := newTestNormalizer(db, &fakeClient{})
	stream := testStream()

	raw := &node.Log{
		Address:     testContract,
		Topics:      []string{KindTransfer.Topic(), topicFor(testMinter)}, //missing topics
		Data:        "0x",
		BlockNumber: 100,
		TxHash:      "0xbeef",
	}
	err := norm.Handle(context.Background(), stream, raw)
	require.Error(t, err)
	assert.True(t, isDiscard(err), "undecodable payloads are dropped, not retried")

	var count int64
	require.NoError(t, db.Model(&model.TokenEvent{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "malformed logs leave no partial rows")
}
