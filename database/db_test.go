package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketsync/model"
)

func testDB(t *testing.T) *DB {
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.DropTable(gdb))
	require.NoError(t, model.Migrate(gdb))
	return New(gdb)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestNewTokenIdempotent(t *testing.T) {
	db := testDB(t)
	token := model.Token{
		Chain: "ela", Contract: "0xaa", TokenId: "7",
		TokenOwner: "0x01", CreateTime: 100,
	}
	require.NoError(t, db.NewToken(&token))
	found, err := db.UpdateToken("ela", "0xaa", "7", &TokenUpdate{TokenOwner: strPtr("0x02")})
	require.NoError(t, err)
	require.True(t, found)

	// a replayed mint carries the same natural key; it must not
	// duplicate the row and must not rewind the later owner change
	replay := model.Token{
		Chain: "ela", Contract: "0xaa", TokenId: "7",
		TokenOwner: "0x01", CreateTime: 100,
	}
	require.NoError(t, db.NewToken(&replay))

	var count int64
	require.NoError(t, db.Model(&model.Token{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	stored, err := db.GetToken("ela", "0xaa", "7")
	require.NoError(t, err)
	assert.Equal(t, "0x02", stored.TokenOwner)
}

func TestUpdateTokenMissing(t *testing.T) {
	db := testDB(t)
	found, err := db.UpdateToken("ela", "0xaa", "7", &TokenUpdate{TokenOwner: strPtr("0x02")})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateTokenReplay(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.NewToken(&model.Token{
		Chain: "ela", Contract: "0xaa", TokenId: "7", TokenOwner: "0x02",
	}))

	// an update that changes nothing still reports the row as found
	found, err := db.UpdateToken("ela", "0xaa", "7", &TokenUpdate{TokenOwner: strPtr("0x02")})
	require.NoError(t, err)
	assert.True(t, found)
}

func TestUpdateOrderStateOneWay(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.NewOrder(&model.Order{
		Chain: "ela", BaseToken: "0xbb", OrderId: 5,
		OrderState: model.OrderStateCreated, Price: "100",
	}))

	found, err := db.UpdateOrder("ela", "0xbb", 5, &OrderUpdate{
		OrderState: intPtr(model.OrderStateFilled),
		Filled:     strPtr("100"),
	})
	require.NoError(t, err)
	assert.True(t, found)

	// a late cancel must not overwrite the terminal state
	found, err = db.UpdateOrder("ela", "0xbb", 5, &OrderUpdate{
		OrderState: intPtr(model.OrderStateCancelled),
	})
	require.NoError(t, err)
	assert.True(t, found)

	order, err := db.GetOrder("ela", "0xbb", 5)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateFilled, order.OrderState)
	assert.Equal(t, "100", order.Filled)
}

// The creation and the fill arrive on separate streams with separate
// cursors, so after a crash the creation may be replayed when the fill
// is already stored. The replay must not reopen the order.
func TestNewOrderReplayKeepsFill(t *testing.T) {
	db := testDB(t)
	order := model.Order{
		Chain: "ela", BaseToken: "0xbb", OrderId: 5,
		OrderState: model.OrderStateCreated, Price: "100", SellerAddr: "0x01",
	}
	require.NoError(t, db.NewOrder(&order))

	found, err := db.UpdateOrder("ela", "0xbb", 5, &OrderUpdate{
		OrderState: intPtr(model.OrderStateFilled),
		Filled:     strPtr("100"),
		BuyerAddr:  strPtr("0x02"),
	})
	require.NoError(t, err)
	require.True(t, found)

	replay := model.Order{
		Chain: "ela", BaseToken: "0xbb", OrderId: 5,
		OrderState: model.OrderStateCreated, Price: "100", SellerAddr: "0x01",
	}
	require.NoError(t, db.NewOrder(&replay))

	stored, err := db.GetOrder("ela", "0xbb", 5)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStateFilled, stored.OrderState)
	assert.Equal(t, "100", stored.Filled)
	assert.Equal(t, "0x02", stored.BuyerAddr)
}

func TestNewCollectionReplayKeepsInfo(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.NewCollection(&model.Collection{
		Chain: "ela", Token: "0xaa", Name: "Old Name", Uri: "u1",
	}))
	found, err := db.UpdateCollection("ela", "0xaa", &CollectionUpdate{
		Name: strPtr("New Name"), Uri: strPtr("u2"),
	})
	require.NoError(t, err)
	require.True(t, found)

	// a replayed registration may trail the info update
	require.NoError(t, db.NewCollection(&model.Collection{
		Chain: "ela", Token: "0xaa", Name: "Old Name", Uri: "u1",
	}))

	stored, err := db.GetCollection("ela", "0xaa")
	require.NoError(t, err)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, "u2", stored.Uri)
}

func TestUpdateOrderMissing(t *testing.T) {
	db := testDB(t)
	found, err := db.UpdateOrder("ela", "0xbb", 5, &OrderUpdate{
		OrderState: intPtr(model.OrderStateFilled),
	})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestAdvanceCursorMonotonic(t *testing.T) {
	db := testDB(t)

	height, err := db.CursorHeight("ela", "0xcc", "Transfer", 12345)
	require.NoError(t, err)
	assert.EqualValues(t, 12345, height, "unseen stream starts at the default")

	require.NoError(t, db.AdvanceCursor("ela", "0xcc", "Transfer", 2000))
	require.NoError(t, db.AdvanceCursor("ela", "0xcc", "Transfer", 1000))

	height, err = db.CursorHeight("ela", "0xcc", "Transfer", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, height, "cursor never rewinds")

	require.NoError(t, db.AdvanceCursor("ela", "0xcc", "Transfer", 4000))
	height, err = db.CursorHeight("ela", "0xcc", "Transfer", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 4000, height)
}

func TestInsertEventDedup(t *testing.T) {
	db := testDB(t)
	event := model.TokenEvent{
		Chain: "ela", TxHash: "0xdead", LogIndex: 3,
		Contract: "0xaa", TokenId: "7", From: "0x01", To: "0x02",
	}
	require.NoError(t, db.InsertTokenEvent(&event))
	replay := event
	require.NoError(t, db.InsertTokenEvent(&replay))

	var count int64
	require.NoError(t, db.Model(&model.TokenEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRetryJobLifecycle(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.EnqueueJob(model.JobUpdateOrder, `{"orderId":5}`, 0))

	jobs, err := db.DueJobs(10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	job := jobs[0]
	assert.Equal(t, model.JobUpdateOrder, job.Kind)

	// rescheduling pushes the job out of the due window
	require.NoError(t, db.RescheduleJob(job.Id, 1, time.Hour))
	jobs, err = db.DueJobs(10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	pending, err := db.PendingJobs()
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending)

	// finished and dead jobs keep their rows
	require.NoError(t, db.FinishJob(job.Id))
	pending, err = db.PendingJobs()
	require.NoError(t, err)
	assert.EqualValues(t, 0, pending)

	var stored model.RetryJob
	require.NoError(t, db.Where("id=?", job.Id).First(&stored).Error)
	assert.Equal(t, model.JobDone, stored.State)
}

func TestDueJobsKeepEnqueueOrder(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.EnqueueJob(model.JobUpdateOrder, `{"orderId":1}`, 0))
	require.NoError(t, db.EnqueueJob(model.JobUpdateOrder, `{"orderId":2}`, 0))

	jobs, err := db.DueJobs(10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Less(t, jobs[0].Id, jobs[1].Id)
}

func TestComputeCollectionStats(t *testing.T) {
	db := testDB(t)
	burn := "0x0000000000000000000000000000000000000000"
	for _, token := range []model.Token{
		{Chain: "ela", Contract: "0xaa", TokenId: "1", TokenOwner: "0x01"},
		{Chain: "ela", Contract: "0xaa", TokenId: "2", TokenOwner: "0x01"},
		{Chain: "ela", Contract: "0xaa", TokenId: "3", TokenOwner: burn},
	} {
		token := token
		require.NoError(t, db.NewToken(&token))
	}
	for _, order := range []model.Order{
		{Chain: "ela", BaseToken: "0xaa", OrderId: 1, OrderState: model.OrderStateFilled, Price: "50"},
		{Chain: "ela", BaseToken: "0xaa", OrderId: 2, OrderState: model.OrderStateCreated, Price: "200"},
		{Chain: "ela", BaseToken: "0xaa", OrderId: 3, OrderState: model.OrderStateCreated, Price: "90"},
	} {
		order := order
		require.NoError(t, db.NewOrder(&order))
	}

	stats, err := db.ComputeCollectionStats("ela", "0xaa", burn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Items, "burned token excluded")
	assert.EqualValues(t, 1, stats.Owners)
	assert.EqualValues(t, 1, stats.TradeVolume)
	assert.Equal(t, "90", stats.FloorPrice, "floor is the cheapest open sale")
}
