package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmonic-games/stagepass/internal/auth"
	"github.com/harmonic-games/stagepass/internal/identity"
	"github.com/harmonic-games/stagepass/internal/room"
	"github.com/harmonic-games/stagepass/internal/store/memory"
	"github.com/harmonic-games/stagepass/internal/users"
)

func newTestServer(t *testing.T) *http.ServeMux {
	t.Helper()
	a, err := auth.NewService()
	require.NoError(t, err)

	st := memory.New()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	resolver := identity.NewTokenResolver(a, st)
	userSvc := users.NewService(st, a, resolver, logger)
	roomSvc := room.NewService(st, resolver, nil, logger)
	return NewServer(userSvc, roomSvc, logger).Routes()
}

func postJSON(t *testing.T, mux *http.ServeMux, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func createUser(t *testing.T, mux *http.ServeMux, name string) string {
	t.Helper()
	w := postJSON(t, mux, "/user/create", "", fmt.Sprintf(`{"user_name":%q,"leader_card_id":42}`, name))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		UserToken string `json:"user_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserToken)
	return resp.UserToken
}

func TestUserCreateAndMe(t *testing.T) {
	mux := newTestServer(t)
	token := createUser(t, mux, "alice")

	req := httptest.NewRequest("GET", "/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Name         string `json:"name"`
		LeaderCardID int    `json:"leader_card_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Name)
	assert.Equal(t, 42, me.LeaderCardID)

	w = postJSON(t, mux, "/user/update", token, `{"user_name":"alicia","leader_card_id":7}`)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest("GET", "/user/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w2 := httptest.NewRecorder()
	mux.ServeHTTP(w2, req)
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &me))
	assert.Equal(t, "alicia", me.Name)
	assert.Equal(t, 7, me.LeaderCardID)
}

func TestRoomEndpointsRequireToken(t *testing.T) {
	mux := newTestServer(t)

	for _, path := range []string{"/room/create", "/room/join", "/room/wait", "/room/start", "/room/end", "/room/leave"} {
		w := postJSON(t, mux, path, "", `{}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}

	w := postJSON(t, mux, "/room/create", "garbage", `{"live_id":1,"select_difficulty":1}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestRoomFlowOverHTTP drives a whole session through the wire surface and
// checks the integer enum values clients depend on.
func TestRoomFlowOverHTTP(t *testing.T) {
	mux := newTestServer(t)
	hostToken := createUser(t, mux, "alice")
	guestToken := createUser(t, mux, "bob")

	// Create.
	w := postJSON(t, mux, "/room/create", hostToken, `{"live_id":10,"select_difficulty":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		RoomID uuid.UUID `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEqual(t, uuid.Nil, created.RoomID)

	// List.
	w = postJSON(t, mux, "/room/list", "", `{"live_id":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		RoomInfoList []struct {
			RoomID          uuid.UUID `json:"room_id"`
			LiveID          int64     `json:"live_id"`
			JoinedUserCount int       `json:"joined_user_count"`
			MaxUserCount    int       `json:"max_user_count"`
		} `json:"room_info_list"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.RoomInfoList, 1)
	assert.Equal(t, created.RoomID, list.RoomInfoList[0].RoomID)
	assert.Equal(t, 1, list.RoomInfoList[0].JoinedUserCount)
	assert.Equal(t, 4, list.RoomInfoList[0].MaxUserCount)

	// Join.
	joinBody := fmt.Sprintf(`{"room_id":%q,"select_difficulty":2}`, created.RoomID)
	w = postJSON(t, mux, "/room/join", guestToken, joinBody)
	require.Equal(t, http.StatusOK, w.Code)
	var join struct {
		JoinRoomResult int `json:"join_room_result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &join))
	assert.Equal(t, 1, join.JoinRoomResult, "Ok on the wire is 1")

	// Wait: roster flags and waiting status.
	waitBody := fmt.Sprintf(`{"room_id":%q}`, created.RoomID)
	w = postJSON(t, mux, "/room/wait", guestToken, waitBody)
	require.Equal(t, http.StatusOK, w.Code)
	var wait struct {
		Status       int `json:"status"`
		RoomUserList []struct {
			Name       string `json:"name"`
			Difficulty int    `json:"select_difficulty"`
			IsMe       bool   `json:"is_me"`
			IsHost     bool   `json:"is_host"`
		} `json:"room_user_list"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wait))
	assert.Equal(t, 1, wait.Status, "Waiting on the wire is 1")
	require.Len(t, wait.RoomUserList, 2)
	assert.True(t, wait.RoomUserList[0].IsHost)
	assert.False(t, wait.RoomUserList[0].IsMe)
	assert.True(t, wait.RoomUserList[1].IsMe)
	assert.Equal(t, 2, wait.RoomUserList[1].Difficulty)

	// Start: guest forbidden, host allowed.
	w = postJSON(t, mux, "/room/start", guestToken, waitBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = postJSON(t, mux, "/room/start", hostToken, waitBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, mux, "/room/wait", hostToken, waitBody)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wait))
	assert.Equal(t, 2, wait.Status, "LiveStart on the wire is 2")

	// Results gate: empty before both members submit.
	w = postJSON(t, mux, "/room/result", "", waitBody)
	require.Equal(t, http.StatusOK, w.Code)
	var results struct {
		ResultUserList []struct {
			Score          int   `json:"score"`
			JudgeCountList []int `json:"judge_count_list"`
		} `json:"result_user_list"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Empty(t, results.ResultUserList)

	endBody := fmt.Sprintf(`{"room_id":%q,"score":5000,"judge_count_list":[10,5,3,1,0]}`, created.RoomID)
	w = postJSON(t, mux, "/room/end", hostToken, endBody)
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, mux, "/room/end", guestToken, endBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, mux, "/room/result", "", waitBody)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	require.Len(t, results.ResultUserList, 2)
	assert.Equal(t, 5000, results.ResultUserList[0].Score)
	assert.Equal(t, []int{10, 5, 3, 1, 0}, results.ResultUserList[0].JudgeCountList)

	w = postJSON(t, mux, "/room/wait", hostToken, waitBody)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wait))
	assert.Equal(t, 3, wait.Status, "Dissolution on the wire is 3")

	// Leave both; room disappears from the list.
	w = postJSON(t, mux, "/room/leave", guestToken, waitBody)
	require.Equal(t, http.StatusOK, w.Code)
	w = postJSON(t, mux, "/room/leave", hostToken, waitBody)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(t, mux, "/room/list", "", `{"live_id":10}`)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Empty(t, list.RoomInfoList)
}

func TestEndRejectsBadJudgeArity(t *testing.T) {
	mux := newTestServer(t)
	token := createUser(t, mux, "alice")

	w := postJSON(t, mux, "/room/create", token, `{"live_id":1,"select_difficulty":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		RoomID uuid.UUID `json:"room_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	body := fmt.Sprintf(`{"room_id":%q,"score":1,"judge_count_list":[1,2,3]}`, created.RoomID)
	w = postJSON(t, mux, "/room/end", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRoomRejectsBadDifficulty(t *testing.T) {
	mux := newTestServer(t)
	token := createUser(t, mux, "alice")

	w := postJSON(t, mux, "/room/create", token, `{"live_id":1,"select_difficulty":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
