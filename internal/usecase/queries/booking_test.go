//go:build unit

package queries_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"shareit/internal/domain/booking"
	"shareit/internal/domain/item"
	"shareit/internal/domain/user"
	"shareit/internal/infra/memstore"
	"shareit/internal/pkg/clock"
	"shareit/internal/pkg/errs"
	"shareit/internal/usecase/queries"
	"shareit/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

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

func seedItem(t *testing.T, store *memstore.Store, ownerID uuid.UUID, name string) uuid.UUID {
	t.Helper()
	i, err := item.NewItem(ownerID, name, name+" description", true)
	require.NoError(t, err)
	err = store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Items().Create(ctx, i)
		return err
	})
	require.NoError(t, err)
	return i.ID()
}

// 任意の状態・期間の予約を直接永続化する
func seedBooking(t *testing.T, store *memstore.Store, itemID, bookerID uuid.UUID, start, end time.Time, status booking.Status) uuid.UUID {
	t.Helper()
	b := booking.ReconstructBooking(uuid.New(), itemID, bookerID, start, end, status, baseTime)
	err := store.Within(context.Background(), func(ctx context.Context, tx shared.Tx) error {
		_, err := tx.Bookings().Create(ctx, b)
		return err
	})
	require.NoError(t, err)
	return b.ID()
}

func TestBookingGetByID(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (queries.BookingQueries, *memstore.Store, uuid.UUID, uuid.UUID, uuid.UUID) {
		store := memstore.New()
		q := queries.NewBookingQueries(store.BookingReads(), store.UserReads(), clock.NewMockClock(baseTime))
		ownerID := seedUser(t, store, "owner", "owner@example.com")
		bookerID := seedUser(t, store, "booker", "booker@example.com")
		itemID := seedItem(t, store, ownerID, "drill")
		bookingID := seedBooking(t, store, itemID, bookerID, baseTime.Add(time.Hour), baseTime.Add(2*time.Hour), booking.StatusWaiting)
		return q, store, ownerID, bookerID, bookingID
	}

	t.Run("予約者は閲覧できる", func(t *testing.T) {
		q, _, _, bookerID, bookingID := setup(t)

		view, err := q.GetByID(ctx, bookerID, bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, view.ID)
		assert.Equal(t, "booker", view.Booker.Name)
		assert.Equal(t, "drill", view.Item.Name)
	})

	t.Run("アイテムのオーナーも閲覧できる", func(t *testing.T) {
		q, _, ownerID, _, bookingID := setup(t)

		view, err := q.GetByID(ctx, ownerID, bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, view.ID)
	})

	t.Run("第三者はBookingAccessDenied", func(t *testing.T) {
		q, store, _, _, bookingID := setup(t)
		thirdID := seedUser(t, store, "third", "third@example.com")

		_, err := q.GetByID(ctx, thirdID, bookingID)
		assert.ErrorIs(t, err, queries.ErrBookingAccessDenied)
	})

	t.Run("存在しない予約はBookingNotFound", func(t *testing.T) {
		q, _, _, bookerID, _ := setup(t)

		_, err := q.GetByID(ctx, bookerID, uuid.New())
		assert.ErrorIs(t, err, queries.ErrBookingNotFound)
	})

	t.Run("存在しないユーザはUserNotFound", func(t *testing.T) {
		q, _, _, _, bookingID := setup(t)

		_, err := q.GetByID(ctx, uuid.New(), bookingID)
		assert.ErrorIs(t, err, queries.ErrUserNotFound)
	})
}

func TestBookingListStates(t *testing.T) {
	ctx := context.Background()

	store := memstore.New()
	q := queries.NewBookingQueries(store.BookingReads(), store.UserReads(), clock.NewMockClock(baseTime))
	ownerID := seedUser(t, store, "owner", "owner@example.com")
	bookerID := seedUser(t, store, "booker", "booker@example.com")
	itemID := seedItem(t, store, ownerID, "drill")

	current := seedBooking(t, store, itemID, bookerID, baseTime.Add(-time.Hour), baseTime.Add(time.Hour), booking.StatusApproved)
	past := seedBooking(t, store, itemID, bookerID, baseTime.Add(-3*time.Hour), baseTime.Add(-time.Hour), booking.StatusApproved)
	waiting := seedBooking(t, store, itemID, bookerID, baseTime.Add(time.Hour), baseTime.Add(3*time.Hour), booking.StatusWaiting)
	rejected := seedBooking(t, store, itemID, bookerID, baseTime.Add(5*time.Hour), baseTime.Add(7*time.Hour), booking.StatusRejected)

	ids := func(views []*queries.BookingView) []uuid.UUID {
		out := make([]uuid.UUID, len(views))
		for i, v := range views {
			out[i] = v.ID
		}
		return out
	}

	cases := []struct {
		state string
		want  []uuid.UUID // 開始日時の降順
	}{
		{"ALL", []uuid.UUID{rejected, waiting, current, past}},
		{"CURRENT", []uuid.UUID{current}},
		{"PAST", []uuid.UUID{past}},
		{"FUTURE", []uuid.UUID{rejected, waiting}},
		{"WAITING", []uuid.UUID{waiting}},
		{"REJECTED", []uuid.UUID{rejected}},
	}
	for _, tc := range cases {
		t.Run("予約者視点の"+tc.state, func(t *testing.T) {
			views, err := q.ListByBooker(ctx, bookerID, tc.state, queries.Page{Size: 10})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(views))
		})
		t.Run("オーナー視点の"+tc.state, func(t *testing.T) {
			views, err := q.ListByOwner(ctx, ownerID, tc.state, queries.Page{Size: 10})
			require.NoError(t, err)
			assert.Equal(t, tc.want, ids(views))
		})
	}

	t.Run("未知の状態はUnknownBookingState", func(t *testing.T) {
		// センチネルはドメイン原因へのマーカーとして載るため errs.Is で照合する
		_, err := q.ListByBooker(ctx, bookerID, "UNSUPPORTED_STATUS", queries.Page{Size: 10})
		assert.True(t, errs.Is(err, queries.ErrUnknownBookingState))
		assert.True(t, errs.Is(err, booking.ErrUnknownState))

		_, err = q.ListByOwner(ctx, ownerID, "UNSUPPORTED_STATUS", queries.Page{Size: 10})
		assert.True(t, errs.Is(err, queries.ErrUnknownBookingState))
	})

	t.Run("予約のないユーザには空リスト", func(t *testing.T) {
		otherID := seedUser(t, store, "other", "other@example.com")

		views, err := q.ListByBooker(ctx, otherID, "ALL", queries.Page{Size: 10})
		require.NoError(t, err)
		assert.Empty(t, views)
	})
}

func TestBookingListPagination(t *testing.T) {
	ctx := context.Background()

	store := memstore.New()
	q := queries.NewBookingQueries(store.BookingReads(), store.UserReads(), clock.NewMockClock(baseTime))
	ownerID := seedUser(t, store, "owner", "owner@example.com")
	bookerID := seedUser(t, store, "booker", "booker@example.com")
	itemID := seedItem(t, store, ownerID, "drill")

	for i := range 15 {
		start := baseTime.Add(time.Duration(i+1) * time.Hour)
		seedBooking(t, store, itemID, bookerID, start, start.Add(30*time.Minute), booking.StatusWaiting)
	}

	firstPage, err := q.ListByBooker(ctx, bookerID, "ALL", queries.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, firstPage, 10)

	// サイズの倍数でないオフセットは切り捨てで同じページに落ちる
	t.Run("オフセットはページ境界に切り捨てられる", func(t *testing.T) {
		aliased, err := q.ListByBooker(ctx, bookerID, "ALL", queries.Page{From: 5, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, firstPage, aliased)
	})

	t.Run("次ページには残りが載る", func(t *testing.T) {
		second, err := q.ListByBooker(ctx, bookerID, "ALL", queries.Page{From: 10, Size: 10})
		require.NoError(t, err)
		assert.Len(t, second, 5)
		// 降順の続き
		assert.True(t, second[0].Start.Before(firstPage[len(firstPage)-1].Start),
			fmt.Sprintf("expected %v before %v", second[0].Start, firstPage[len(firstPage)-1].Start))
	})
}
