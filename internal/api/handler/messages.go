package handler

import (
	"duochat/backend/internal/models"
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

// GetUsersForSidebar lists every other user.
func (h *Handler) GetUsersForSidebar(c *gin.Context) {
	users, err := h.Store.ListUsersExcept(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}

// GetMessages returns the conversation with :id, oldest first.
func (h *Handler) GetMessages(c *gin.Context) {
	peerID := c.Param("id")
	history, err := h.Store.GetConversation(c.Request.Context(), currentUser(c).ID, peerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if history == nil {
		history = []models.Message{}
	}
	c.JSON(http.StatusOK, history)
}

// SendMessage persists a message to :id and then hands it to the hub for
// live delivery. The response does not wait on the receiver.
func (h *Handler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	msg := models.Message{
		SenderID:   currentUser(c).ID,
		ReceiverID: c.Param("id"),
		Text:       req.Text,
	}
	if !msg.HasContent() && req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must contain text or an image"})
		return
	}

	image, err := h.Media.Resolve(c.Request.Context(), req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg.Image = image

	if err := h.Store.SaveMessage(c.Request.Context(), &msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	delivered := h.Hub.OnMessagePersisted(msg)
	h.Logger.Debug().
		Str("message_id", msg.ID).
		Str("receiver_id", msg.ReceiverID).
		Bool("delivered", delivered).
		Msg("message sent")

	c.JSON(http.StatusCreated, msg)
}

// GetOnlineUsers returns the current presence set.
func (h *Handler) GetOnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"onlineUsers": h.Hub.OnlineUsers()})
}
