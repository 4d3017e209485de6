package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/caseflow/iep-compliance-api/internal/dto"
	"github.com/caseflow/iep-compliance-api/internal/service"
	appErrors "github.com/caseflow/iep-compliance-api/pkg/errors"
	"github.com/caseflow/iep-compliance-api/pkg/response"
)

// NotificationHandler serves a recipient's alert feed.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs the notification handler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's most recent notifications with an unread count.
func (h *NotificationHandler) List(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	items, err := h.notifications.List(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload := dto.NotificationListResponse{
		Items:  make([]dto.NotificationResponse, 0, len(items)),
		Unread: unread,
		Limit:  limit,
	}
	for _, item := range items {
		payload.Items = append(payload.Items, dto.NewNotificationResponse(item))
	}
	response.JSON(c, http.StatusOK, payload, nil)
}

// UnreadCount returns the unread badge count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	unread, err := h.notifications.UnreadCount(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.UnreadCountResponse{Unread: unread}, nil)
}

// MarkRead flags a single owned notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.notifications.MarkRead(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// MarkAllRead flags every unread notification for the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if h.notifications == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	updated, err := h.notifications.MarkAllRead(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.MarkAllReadResponse{Updated: updated}, nil)
}
