package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
	httpHandler "github.com/CodeWizard-AB/realtime-chat/internal/handler/http"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository"
	"github.com/CodeWizard-AB/realtime-chat/internal/repository/mocks"
	"github.com/CodeWizard-AB/realtime-chat/internal/service"
)

// pngBytes carries the PNG signature so content sniffing accepts it.
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}

// gifBytes is a valid image format the service does not accept.
var gifBytes = []byte("GIF89a\x01\x00\x01\x00")

type uploaderMock struct {
	mock.Mock
}

func (m *uploaderMock) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	args := m.Called(ctx, data, fileName)
	return args.String(0), args.Error(1)
}

type testEnv struct {
	rooms    *mocks.RoomRepository
	locks    *mocks.LockRepository
	quota    *mocks.QuotaRepository
	uploader *uploaderMock
	router   *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{
		rooms:    new(mocks.RoomRepository),
		locks:    new(mocks.LockRepository),
		quota:    new(mocks.QuotaRepository),
		uploader: new(uploaderMock),
	}
	svc := service.NewRoomService(env.rooms, env.locks, env.quota, env.uploader)
	handler := httpHandler.NewRoomHandler(svc)

	router := gin.New()
	router.POST("/api/room/create", handler.CreateRoom)
	router.POST("/api/room/join", handler.JoinRoom)
	router.GET("/api/room/:roomToken", handler.GetRoom)
	router.GET("/api/username/suggest", handler.SuggestUsername)
	env.router = router
	return env
}

func multipartBody(t *testing.T, fields map[string]string, avatar []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if avatar != nil {
		part, err := w.CreateFormFile("avatar", "avatar.png")
		require.NoError(t, err)
		_, err = part.Write(avatar)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (env *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.RemoteAddr = "203.0.113.7:52341"
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func createFields() map[string]string {
	return map[string]string{
		"username":  "alice-wonder",
		"roomToken": "room-token-1234",
		"duration":  "600",
		"type":      "group",
	}
}

func TestCreateRoom_Success(t *testing.T) {
	env := newTestEnv(t)
	env.locks.On("AcquireUsernameLock", mock.Anything, "alice-wonder", 5*time.Second).Return(true, nil).Once()
	env.locks.On("ReleaseUsernameLock", mock.Anything, "alice-wonder").Return(nil).Once()
	env.rooms.On("FindUserRoom", mock.Anything, "alice-wonder").Return("", repository.ErrNotFound).Once()
	env.quota.On("BumpCreateCount", mock.Anything, mock.Anything, 600*time.Second).Return(int64(1), nil).Once()
	env.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("https://ik.example.com/a.png", nil).Once()
	env.rooms.On("SaveRoom", mock.Anything, "room-token-1234", mock.Anything, 600*time.Second).Return(nil).Once()
	env.rooms.On("SetUserRoom", mock.Anything, "alice-wonder", "room-token-1234", 600*time.Second).Return(nil).Once()

	body, contentType := multipartBody(t, createFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httpHandler.CreateRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "room-token-1234", resp.RoomToken)
	assert.Len(t, resp.OwnerID, domain.OwnerIDLength)
	assert.Greater(t, resp.ExpiresAt, time.Now().Unix())
}

func TestCreateRoom_MissingAvatar(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, createFields(), nil)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.locks.AssertNotCalled(t, "AcquireUsernameLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRoom_NonNumericDuration(t *testing.T) {
	env := newTestEnv(t)
	fields := createFields()
	fields["duration"] = "ten minutes"

	body, contentType := multipartBody(t, fields, pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateRoom_UnsupportedImageFormat(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, createFields(), gifBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.locks.AssertNotCalled(t, "AcquireUsernameLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateRoom_ReservedUsername(t *testing.T) {
	env := newTestEnv(t)
	fields := createFields()
	fields["username"] = "admin"

	body, contentType := multipartBody(t, fields, pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateRoom_UsernameBusy(t *testing.T) {
	env := newTestEnv(t)
	env.locks.On("AcquireUsernameLock", mock.Anything, "alice-wonder", 5*time.Second).Return(false, nil).Once()

	body, contentType := multipartBody(t, createFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateRoom_ActiveRoomExists(t *testing.T) {
	env := newTestEnv(t)
	env.locks.On("AcquireUsernameLock", mock.Anything, "alice-wonder", 5*time.Second).Return(true, nil).Once()
	env.locks.On("ReleaseUsernameLock", mock.Anything, "alice-wonder").Return(nil).Once()
	env.rooms.On("FindUserRoom", mock.Anything, "alice-wonder").Return("other-room-token", nil).Once()

	body, contentType := multipartBody(t, createFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateRoom_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	env.locks.On("AcquireUsernameLock", mock.Anything, "alice-wonder", 5*time.Second).Return(true, nil).Once()
	env.locks.On("ReleaseUsernameLock", mock.Anything, "alice-wonder").Return(nil).Once()
	env.rooms.On("FindUserRoom", mock.Anything, "alice-wonder").Return("", repository.ErrNotFound).Once()
	env.quota.On("BumpCreateCount", mock.Anything, mock.Anything, 600*time.Second).Return(int64(2), nil).Once()

	body, contentType := multipartBody(t, createFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/create", body, contentType)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func joinFields() map[string]string {
	return map[string]string{
		"username":  "bobby-tables",
		"roomToken": "room-token-1234",
	}
}

func TestJoinRoom_Success(t *testing.T) {
	env := newTestEnv(t)
	room := &domain.Room{
		OwnerID:   "owner-id-12ab",
		Username:  "alice-wonder",
		Type:      domain.RoomTypeGroup,
		CreatedAt: time.Now().Unix() - 100,
		ExpiresAt: time.Now().Unix() + 500,
	}
	env.rooms.On("FindRoom", mock.Anything, "room-token-1234").Return(room, nil).Once()
	env.rooms.On("AddMember", mock.Anything, "room-token-1234", mock.Anything).Return(nil).Once()
	env.rooms.On("RoomTTL", mock.Anything, "room-token-1234").Return(500*time.Second, nil).Once()
	env.rooms.On("SyncMembersTTL", mock.Anything, "room-token-1234", 500*time.Second).Return(nil).Once()

	body, contentType := multipartBody(t, joinFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/join", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp httpHandler.JoinRoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "room-token-1234", resp.RoomToken)
	assert.Equal(t, "bobby-tables", resp.Username)
	assert.Len(t, resp.MemberID, domain.MemberIDLength)
	assert.Equal(t, room.ExpiresAt, resp.ExpiresAt)
}

func TestJoinRoom_NotFound(t *testing.T) {
	env := newTestEnv(t)
	env.rooms.On("FindRoom", mock.Anything, "zzzzzzzzzz").Return(nil, repository.ErrNotFound).Once()

	fields := joinFields()
	fields["roomToken"] = "zzzzzzzzzz"
	body, contentType := multipartBody(t, fields, pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/join", body, contentType)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJoinRoom_Expired(t *testing.T) {
	env := newTestEnv(t)
	room := &domain.Room{
		Username:  "alice-wonder",
		Type:      domain.RoomTypeGroup,
		CreatedAt: time.Now().Unix() - 700,
		ExpiresAt: time.Now().Unix() - 100,
	}
	env.rooms.On("FindRoom", mock.Anything, "room-token-1234").Return(room, nil).Once()

	body, contentType := multipartBody(t, joinFields(), pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/join", body, contentType)

	assert.Equal(t, http.StatusGone, rec.Code)
}

func TestJoinRoom_UsernameTooShort(t *testing.T) {
	env := newTestEnv(t)
	fields := joinFields()
	fields["username"] = "bob"

	body, contentType := multipartBody(t, fields, pngBytes)
	rec := env.do(t, http.MethodPost, "/api/room/join", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env.rooms.AssertNotCalled(t, "FindRoom", mock.Anything, mock.Anything)
}

func TestGetRoom_Success(t *testing.T) {
	env := newTestEnv(t)
	room := &domain.Room{
		OwnerID:   "owner-id-12ab",
		Username:  "alice-wonder",
		Type:      domain.RoomTypePrivate,
		AvatarURL: "https://ik.example.com/a.png",
		CreatedAt: time.Now().Unix() - 100,
		ExpiresAt: time.Now().Unix() + 500,
	}
	env.rooms.On("FindRoom", mock.Anything, "room-token-1234").Return(room, nil).Once()

	rec := env.do(t, http.MethodGet, "/api/room/room-token-1234", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp httpHandler.RoomResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice-wonder", resp.Username)
	assert.Equal(t, "private", resp.Type)
	assert.Equal(t, room.AvatarURL, resp.AvatarURL)
	// The owner id never leaves the create response.
	assert.NotContains(t, rec.Body.String(), room.OwnerID)
}

func TestSuggestUsername(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/username/suggest", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["username"])
}
