package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/CodeWizard-AB/realtime-chat/internal/domain"
	"github.com/CodeWizard-AB/realtime-chat/internal/service"
)

// RoomHandler exposes the room lifecycle over HTTP. Requests are multipart
// forms because both operations carry an avatar image.
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

// CreateRoomResponse is the success body of POST /api/room/create.
type CreateRoomResponse struct {
	RoomToken string `json:"roomToken"`
	OwnerID   string `json:"ownerId"`
	ExpiresAt int64  `json:"expiresAt"`
}

// CreateRoom handles POST /api/room/create.
// Form fields: username, roomToken, duration (seconds), type, avatar (file).
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	username := c.PostForm("username")
	roomToken := c.PostForm("roomToken")
	roomType := c.PostForm("type")

	duration, err := strconv.Atoi(c.PostForm("duration"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "duration must be a number of seconds")
		return
	}

	avatar, err := readAvatar(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.roomService.CreateRoom(c.Request.Context(), service.CreateRoomInput{
		Username:        username,
		RoomToken:       roomToken,
		DurationSeconds: duration,
		Type:            domain.RoomType(roomType),
		Avatar:          avatar,
		Address:         c.ClientIP(),
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, CreateRoomResponse{
		RoomToken: result.RoomToken,
		OwnerID:   result.OwnerID,
		ExpiresAt: result.ExpiresAt,
	})
}

// JoinRoomResponse is the success body of POST /api/room/join.
type JoinRoomResponse struct {
	RoomToken string `json:"roomToken"`
	MemberID  string `json:"memberId"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expiresAt"`
}

// JoinRoom handles POST /api/room/join.
// Form fields: roomToken, username, avatar (file). The avatar is validated
// like on create but members are not uploaded to the media host; only room
// owners have a hosted avatar.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	roomToken := c.PostForm("roomToken")
	username := c.PostForm("username")

	if len(username) < domain.UsernameMinLen || len(username) > domain.UsernameMaxLen {
		ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("username must be %d-%d characters", domain.UsernameMinLen, domain.UsernameMaxLen))
		return
	}
	if len(roomToken) < domain.RoomTokenMinLen || len(roomToken) > domain.RoomTokenMaxLen {
		ErrorResponse(c, http.StatusBadRequest, fmt.Sprintf("roomToken must be %d-%d characters", domain.RoomTokenMinLen, domain.RoomTokenMaxLen))
		return
	}
	if _, err := readAvatar(c); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.roomService.JoinRoom(c.Request.Context(), service.JoinRoomInput{
		RoomToken: roomToken,
		Username:  username,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, JoinRoomResponse{
		RoomToken: result.RoomToken,
		MemberID:  result.MemberID,
		Username:  result.Username,
		ExpiresAt: result.ExpiresAt,
	})
}

// RoomResponse is the success body of GET /api/room/:roomToken.
type RoomResponse struct {
	RoomToken string `json:"roomToken"`
	Username  string `json:"username"`
	Type      string `json:"type"`
	AvatarURL string `json:"avatarUrl"`
	CreatedAt int64  `json:"createdAt"`
	ExpiresAt int64  `json:"expiresAt"`
}

// GetRoom handles GET /api/room/:roomToken. The owner id is omitted: it is
// handed out once, to the creator.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomToken := c.Param("roomToken")

	room, err := h.roomService.GetRoom(c.Request.Context(), roomToken)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, RoomResponse{
		RoomToken: roomToken,
		Username:  room.Username,
		Type:      string(room.Type),
		AvatarURL: room.AvatarURL,
		CreatedAt: room.CreatedAt,
		ExpiresAt: room.ExpiresAt,
	})
}

// SuggestUsername handles GET /api/username/suggest.
func (h *RoomHandler) SuggestUsername(c *gin.Context) {
	username, err := domain.GenerateUsername()
	if err != nil {
		logrus.WithError(err).Error("Failed to generate username")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"username": username})
}

// readAvatar pulls the avatar file out of the multipart form and enforces the
// size and format limits. The content type is sniffed from the bytes, not
// trusted from the part header.
func readAvatar(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("avatar")
	if err != nil {
		return nil, fmt.Errorf("avatar image is required")
	}
	if file.Size > domain.AvatarMaxBytes {
		return nil, fmt.Errorf("avatar must be at most 2MB")
	}
	opened, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar image")
	}
	defer opened.Close()
	data, err := io.ReadAll(io.LimitReader(opened, domain.AvatarMaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar image")
	}
	if len(data) > domain.AvatarMaxBytes {
		return nil, fmt.Errorf("avatar must be at most 2MB")
	}
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
		return data, nil
	default:
		return nil, fmt.Errorf("avatar must be a JPEG or PNG image")
	}
}
