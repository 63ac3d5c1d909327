//go:build unit

package commands_test

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain/item"
	"shareit/internal/domain/user"
	"shareit/internal/infra/memstore"
	"shareit/internal/pkg/clock"
	"shareit/internal/usecase/commands"
	"shareit/internal/usecase/queries"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type bookingFixture struct {
	store *memstore.Store
	clock *clock.MockClock
	cmds  commands.BookingCommands
	q     queries.BookingQueries
}

func newBookingFixture() *bookingFixture {
	store := memstore.New()
	clk := clock.NewMockClock(baseTime)
	q := queries.NewBookingQueries(store.BookingReads(), store.UserReads(), clk)
	return &bookingFixture{
		store: store,
		clock: clk,
		cmds:  commands.NewBookingCommands(store, q, clk),
		q:     q,
	}
}

func seedUser(t *testing.T, store *memstore.Store, name, email string) uuid.UUID {
	t.Helper()
	u, err := user.NewUser(name, email)
	require.NoError(t, err)
	err = store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Users().Create(ctx, u)
		return err
	})
	require.NoError(t, err)
	return u.ID()
}

func seedItem(t *testing.T, store *memstore.Store, ownerID uuid.UUID, name string, available bool) uuid.UUID {
	t.Helper()
	i, err := item.NewItem(ownerID, name, name+" description", available)
	require.NoError(t, err)
	err = store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Items().Create(ctx, i)
		return err
	})
	require.NoError(t, err)
	return i.ID()
}

func TestBookingCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系はWAITINGで永続化される", func(t *testing.T) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")
		bookerID := seedUser(t, f.store, "booker", "booker@example.com")
		itemID := seedItem(t, f.store, ownerID, "drill", true)

		view, err := f.cmds.Create(ctx, bookerID, itemID, baseTime.Add(24*time.Hour), baseTime.Add(72*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, "WAITING", view.Status)
		assert.Equal(t, bookerID, view.Booker.ID)
		assert.Equal(t, "booker", view.Booker.Name)
		assert.Equal(t, itemID, view.Item.ID)
		assert.Equal(t, "drill", view.Item.Name)
	})

	t.Run("存在しないユーザはUserNotFound", func(t *testing.T) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")
		itemID := seedItem(t, f.store, ownerID, "drill", true)

		_, err := f.cmds.Create(ctx, uuid.New(), itemID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		assert.ErrorIs(t, err, commands.ErrUserNotFound)
	})

	t.Run("存在しないアイテムはItemNotFound", func(t *testing.T) {
		f := newBookingFixture()
		bookerID := seedUser(t, f.store, "booker", "booker@example.com")

		_, err := f.cmds.Create(ctx, bookerID, uuid.New(), baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		assert.ErrorIs(t, err, commands.ErrItemNotFound)
	})

	// 自分のアイテムは可用性に関わらず予約できない
	t.Run("自分のアイテムの予約は拒否される", func(t *testing.T) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")

		for _, available := range []bool{true, false} {
			itemID := seedItem(t, f.store, ownerID, "drill", available)
			_, err := f.cmds.Create(ctx, ownerID, itemID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
			assert.ErrorIs(t, err, commands.ErrOwnItemBooking)
		}
	})

	t.Run("利用不可アイテムはItemUnavailable", func(t *testing.T) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")
		bookerID := seedUser(t, f.store, "booker", "booker@example.com")
		itemID := seedItem(t, f.store, ownerID, "drill", false)

		_, err := f.cmds.Create(ctx, bookerID, itemID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		assert.ErrorIs(t, err, commands.ErrItemUnavailable)
	})

	t.Run("失敗した作成は何も残さない", func(t *testing.T) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")
		itemID := seedItem(t, f.store, ownerID, "drill", true)

		_, err := f.cmds.Create(ctx, ownerID, itemID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour))
		require.ErrorIs(t, err, commands.ErrOwnItemBooking)

		views, err := f.q.ListByOwner(ctx, ownerID, "ALL", queries.Page{Size: 10})
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}

func TestBookingResolve(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*bookingFixture, uuid.UUID, uuid.UUID, uuid.UUID) {
		f := newBookingFixture()
		ownerID := seedUser(t, f.store, "owner", "owner@example.com")
		bookerID := seedUser(t, f.store, "booker", "booker@example.com")
		itemID := seedItem(t, f.store, ownerID, "drill", true)
		view, err := f.cmds.Create(ctx, bookerID, itemID, baseTime.Add(24*time.Hour), baseTime.Add(72*time.Hour))
		require.NoError(t, err)
		return f, ownerID, bookerID, view.ID
	}

	t.Run("オーナーの承認でAPPROVEDになる", func(t *testing.T) {
		f, ownerID, _, bookingID := setup(t)

		view, err := f.cmds.Resolve(ctx, ownerID, bookingID, true)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", view.Status)
	})

	t.Run("同じ承認を二回繰り返すとBookingStatusConflict", func(t *testing.T) {
		f, ownerID, _, bookingID := setup(t)

		_, err := f.cmds.Resolve(ctx, ownerID, bookingID, true)
		require.NoError(t, err)

		_, err = f.cmds.Resolve(ctx, ownerID, bookingID, true)
		assert.ErrorIs(t, err, commands.ErrBookingStatusConflict)

		// 状態は変わらない
		view, err := f.q.GetByIDSystem(ctx, bookingID)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", view.Status)
	})

	t.Run("却下の繰り返しも同様にConflict", func(t *testing.T) {
		f, ownerID, _, bookingID := setup(t)

		_, err := f.cmds.Resolve(ctx, ownerID, bookingID, false)
		require.NoError(t, err)

		_, err = f.cmds.Resolve(ctx, ownerID, bookingID, false)
		assert.ErrorIs(t, err, commands.ErrBookingStatusConflict)
	})

	t.Run("APPROVED後のREJECTは通る", func(t *testing.T) {
		f, ownerID, _, bookingID := setup(t)

		_, err := f.cmds.Resolve(ctx, ownerID, bookingID, true)
		require.NoError(t, err)

		view, err := f.cmds.Resolve(ctx, ownerID, bookingID, false)
		require.NoError(t, err)
		assert.Equal(t, "REJECTED", view.Status)
	})

	// 所有者以外にはアイテムの存在を漏らさない
	t.Run("オーナー以外の承認はNotItemOwner", func(t *testing.T) {
		f, _, bookerID, bookingID := setup(t)

		_, err := f.cmds.Resolve(ctx, bookerID, bookingID, true)
		assert.ErrorIs(t, err, commands.ErrNotItemOwner)
	})

	t.Run("存在しない予約はBookingNotFound", func(t *testing.T) {
		f, ownerID, _, _ := setup(t)

		_, err := f.cmds.Resolve(ctx, ownerID, uuid.New(), true)
		assert.ErrorIs(t, err, commands.ErrBookingNotFound)
	})

	t.Run("存在しないユーザはUserNotFound", func(t *testing.T) {
		f, _, _, bookingID := setup(t)

		_, err := f.cmds.Resolve(ctx, uuid.New(), bookingID, true)
		assert.ErrorIs(t, err, commands.ErrUserNotFound)
	})
}
