//go:build e2e

package booking_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"shareit/internal/handler/dto/response"
	"shareit/tests/common/httptest"
	"shareit/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	usersURL    = "/users"
	itemsURL    = "/items"
	bookingsURL = "/bookings"
)

type BookingSuite struct {
	e2e.SharedSuite
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// ------------------------------------------------------------
// APIを通じたフィクスチャ生成ヘルパー
// ------------------------------------------------------------

func (s *BookingSuite) createUser(t *testing.T, name, email string) uuid.UUID {
	t.Helper()

	body := map[string]any{"name": name, "email": email}
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, usersURL, body, "")
	require.Equal(t, http.StatusCreated, w.Code, "ユーザ作成に失敗: %s", w.Body.String())

	var res response.UserResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
	return res.ID
}

func (s *BookingSuite) createItem(t *testing.T, ownerID uuid.UUID, name string, available bool) uuid.UUID {
	t.Helper()

	body := map[string]any{"name": name, "description": name + " description", "available": available}
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, itemsURL, body, ownerID.String())
	require.Equal(t, http.StatusCreated, w.Code, "アイテム作成に失敗: %s", w.Body.String())

	var res response.ItemResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
	return res.ID
}

func (s *BookingSuite) createBooking(t *testing.T, bookerID, itemID uuid.UUID, start, end time.Time) response.BookingResponse {
	t.Helper()

	body := map[string]any{
		"itemId": itemID.String(),
		"start":  start.Format(time.RFC3339),
		"end":    end.Format(time.RFC3339),
	}
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, bookerID.String())
	require.Equal(t, http.StatusCreated, w.Code, "予約作成に失敗: %s", w.Body.String())

	var res response.BookingResponse
	require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
	return res
}

// 完了済み予約はAPIでは作れない（開始が未来である必要がある）ため直接投入する
func (s *BookingSuite) insertFinishedBooking(t *testing.T, itemID, bookerID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	now := time.Now()
	_, err := s.DB.Exec(context.Background(),
		`INSERT INTO bookings (id, item_id, booker_id, start_date, end_date, status) VALUES ($1, $2, $3, $4, $5, 'APPROVED')`,
		id, itemID, bookerID, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	require.NoError(t, err)
	return id
}

// =============================================================================
// TestBookingLifecycle - 予約の作成から承認までの一連の流れ
// =============================================================================

func (s *BookingSuite) TestBookingLifecycle() {
	s.Run("正常系: 予約はWAITINGで作られオーナーの承認でAPPROVEDになる", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		created := s.createBooking(t, bookerID, itemID, start, start.Add(24*time.Hour))

		expected := response.BookingResponse{
			Status: "WAITING",
			Booker: response.UserRefResponse{ID: bookerID, Name: "booker"},
			Item:   response.ItemRefResponse{ID: itemID, Name: "drill"},
		}
		opts := []cmp.Option{
			cmpopts.IgnoreFields(response.BookingResponse{}, "ID", "Start", "End"),
		}
		if diff := cmp.Diff(expected, created, opts...); diff != "" {
			t.Errorf("booking response mismatch (-want +got):\n%s", diff)
		}

		// 予約者とオーナーの双方が参照できる
		for _, viewer := range []uuid.UUID{bookerID, ownerID} {
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, viewer.String())
			require.Equal(t, http.StatusOK, w.Code)
		}

		// 第三者には404で応える
		thirdID := s.createUser(t, "third", "third@example.com")
		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"/"+created.ID.String(), nil, thirdID.String())
		require.Equal(t, http.StatusNotFound, w.Code, "第三者に予約の存在を知らせない")

		// 予約者自身は承認できない（オーナーではないので404）
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, bookingsURL+"/"+created.ID.String()+"?approved=true", nil, bookerID.String())
		require.Equal(t, http.StatusNotFound, w.Code)

		// オーナーの承認
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, bookingsURL+"/"+created.ID.String()+"?approved=true", nil, ownerID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var approved response.BookingResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &approved))
		require.Equal(t, "APPROVED", approved.Status)

		// 同じ承認の繰り返しは409
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, bookingsURL+"/"+created.ID.String()+"?approved=true", nil, ownerID.String())
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("異常系: 自分のアイテムは予約できない", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		start := time.Now().Add(24 * time.Hour).UTC()
		body := map[string]any{
			"itemId": itemID.String(),
			"start":  start.Format(time.RFC3339),
			"end":    start.Add(24 * time.Hour).Format(time.RFC3339),
		}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, ownerID.String())
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("異常系: 利用不可のアイテムは予約できない", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", false)

		start := time.Now().Add(24 * time.Hour).UTC()
		body := map[string]any{
			"itemId": itemID.String(),
			"start":  start.Format(time.RFC3339),
			"end":    start.Add(24 * time.Hour).Format(time.RFC3339),
		}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, bookerID.String())
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("異常系: 未登録ユーザの予約は404", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		start := time.Now().Add(24 * time.Hour).UTC()
		body := map[string]any{
			"itemId": itemID.String(),
			"start":  start.Format(time.RFC3339),
			"end":    start.Add(24 * time.Hour).Format(time.RFC3339),
		}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, uuid.New().String())
		require.Equal(t, http.StatusNotFound, w.Code)
	})

	s.Run("異常系: 識別ヘッダなしは400", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

// =============================================================================
// TestBookingListing - 状態フィルタ付き一覧
// =============================================================================

func (s *BookingSuite) TestBookingListing() {
	s.Run("正常系: 状態フィルタと開始日時の降順", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		// 完了済み（過去）はSQLで投入し、未来の2件はAPIで作る
		pastID := s.insertFinishedBooking(t, itemID, bookerID)
		start1 := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		first := s.createBooking(t, bookerID, itemID, start1, start1.Add(12*time.Hour))
		start2 := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
		second := s.createBooking(t, bookerID, itemID, start2, start2.Add(12*time.Hour))

		listIDs := func(path string, viewer uuid.UUID) []uuid.UUID {
			w := httptest.PerformRequest(t, s.Router, http.MethodGet, path, nil, viewer.String())
			require.Equal(t, http.StatusOK, w.Code, "一覧取得に失敗: %s", w.Body.String())
			var res []response.BookingResponse
			require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
			ids := make([]uuid.UUID, len(res))
			for i, b := range res {
				ids[i] = b.ID
			}
			return ids
		}

		// 予約者視点
		require.Equal(t, []uuid.UUID{second.ID, first.ID, pastID}, listIDs(bookingsURL+"?state=ALL", bookerID))
		require.Equal(t, []uuid.UUID{second.ID, first.ID}, listIDs(bookingsURL+"?state=FUTURE", bookerID))
		require.Equal(t, []uuid.UUID{second.ID, first.ID}, listIDs(bookingsURL+"?state=WAITING", bookerID))
		require.Equal(t, []uuid.UUID{pastID}, listIDs(bookingsURL+"?state=PAST", bookerID))
		require.Empty(t, listIDs(bookingsURL+"?state=REJECTED", bookerID))

		// オーナー視点でも同じ集合が見える
		require.Equal(t, []uuid.UUID{second.ID, first.ID, pastID}, listIDs(bookingsURL+"/owner?state=ALL", ownerID))

		// ページング
		require.Equal(t, []uuid.UUID{second.ID, first.ID}, listIDs(bookingsURL+"?state=ALL&from=0&size=2", bookerID))
		require.Equal(t, []uuid.UUID{pastID}, listIDs(bookingsURL+"?state=ALL&from=2&size=2", bookerID))
	})

	s.Run("異常系: 未知の状態は400でメッセージに状態名を含む", func() {
		t := s.T()

		bookerID := s.createUser(t, "booker", "booker@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?state=UNSUPPORTED_STATUS", nil, bookerID.String())
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Unknown state: UNSUPPORTED_STATUS")
	})
}

// =============================================================================
// TestItemAnnotationsAndComments - アイテム詳細の前後予約とコメント
// =============================================================================

func (s *BookingSuite) TestItemAnnotationsAndComments() {
	s.Run("正常系: オーナーだけが前後の予約を見られる", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		lastID := s.insertFinishedBooking(t, itemID, bookerID)
		start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
		next := s.createBooking(t, bookerID, itemID, start, start.Add(12*time.Hour))

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL+"/"+itemID.String(), nil, ownerID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var ownerView response.ItemResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &ownerView))
		require.NotNil(t, ownerView.LastBooking)
		require.NotNil(t, ownerView.NextBooking)
		require.Equal(t, lastID, ownerView.LastBooking.ID)
		require.Equal(t, next.ID, ownerView.NextBooking.ID)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL+"/"+itemID.String(), nil, bookerID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var bookerView response.ItemResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &bookerView))
		require.Nil(t, bookerView.LastBooking)
		require.Nil(t, bookerView.NextBooking)
	})

	s.Run("正常系: 完了済み予約があればコメントできる", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)
		s.insertFinishedBooking(t, itemID, bookerID)

		body := map[string]any{"text": "works great"}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, itemsURL+"/"+itemID.String()+"/comment", body, bookerID.String())
		require.Equal(t, http.StatusOK, w.Code, "コメント投稿に失敗: %s", w.Body.String())

		var comment response.CommentResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &comment))
		require.Equal(t, "works great", comment.Text)
		require.Equal(t, "booker", comment.AuthorName)

		// アイテム詳細に載る
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, itemsURL+"/"+itemID.String(), nil, bookerID.String())
		require.Equal(t, http.StatusOK, w.Code)

		var view response.ItemResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &view))
		require.Len(t, view.Comments, 1)
		require.Equal(t, "works great", view.Comments[0].Text)
	})

	s.Run("異常系: 完了済み予約がなければコメントできない", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		body := map[string]any{"text": "never used it"}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, itemsURL+"/"+itemID.String()+"/comment", body, bookerID.String())
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	s.Run("正常系: 可用性の切り替えは予約の可否を変える", func() {
		t := s.T()

		ownerID := s.createUser(t, "owner", "owner@example.com")
		bookerID := s.createUser(t, "booker", "booker@example.com")
		itemID := s.createItem(t, ownerID, "drill", true)

		w := httptest.PerformRequest(t, s.Router, http.MethodPatch, itemsURL+"/"+itemID.String(), map[string]any{"available": false}, ownerID.String())
		require.Equal(t, http.StatusOK, w.Code)

		start := time.Now().Add(24 * time.Hour).UTC()
		body := map[string]any{
			"itemId": itemID.String(),
			"start":  start.Format(time.RFC3339),
			"end":    start.Add(12 * time.Hour).Format(time.RFC3339),
		}
		w = httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, body, bookerID.String())
		require.Equal(t, http.StatusBadRequest, w.Code)

		// オーナー以外の切り替えは404
		w = httptest.PerformRequest(t, s.Router, http.MethodPatch, itemsURL+"/"+itemID.String(), map[string]any{"available": true}, bookerID.String())
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// TestUserAPI - ユーザ登録と取得
// =============================================================================

func (s *BookingSuite) TestUserAPI() {
	s.Run("正常系: 登録して取得できる", func() {
		t := s.T()

		userID := s.createUser(t, "alice", "alice@example.com")

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, usersURL+"/"+userID.String(), nil, "")
		require.Equal(t, http.StatusOK, w.Code)

		var res response.UserResponse
		require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &res))
		require.Equal(t, "alice", res.Name)
		require.Equal(t, "alice@example.com", res.Email)
	})

	s.Run("異常系: メール重複は409", func() {
		t := s.T()

		s.createUser(t, "alice", "alice@example.com")

		body := map[string]any{"name": "bob", "email": "alice@example.com"}
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, usersURL, body, "")
		require.Equal(t, http.StatusConflict, w.Code)
	})

	s.Run("異常系: 存在しないユーザは404", func() {
		t := s.T()

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, usersURL+"/"+uuid.New().String(), nil, "")
		require.Equal(t, http.StatusNotFound, w.Code)
	})
}
