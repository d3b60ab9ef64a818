package wallet

import (
	"context"

	"wallet-gateway/internal/models"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NotificationHandler sends inbox and push messages to the signed-in user.
type NotificationHandler struct {
	service GatewayService
	builder RequestBuilder
	logger  *zap.Logger
}

func NewNotificationHandler(service GatewayService, builder RequestBuilder, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		builder: builder,
		logger:  logger,
	}
}

type messageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

type sendFunc func(ctx context.Context, req *models.MessageRequest) (*models.MessageResponse, error)

// HandleSendInbox handles POST /api/notification/send-inbox
func (h *NotificationHandler) HandleSendInbox(c *gin.Context) {
	h.send(c, "send_inbox", h.service.SendInbox)
}

// HandleSendPush handles POST /api/notification/send-push
func (h *NotificationHandler) HandleSendPush(c *gin.Context) {
	h.send(c, "send_push", h.service.SendPush)
}

func (h *NotificationHandler) send(c *gin.Context, operation string, send sendFunc) {
	_, accessToken, ok := sessionFrom(c)
	if !ok {
		respondError(c, h.logger, operation, errors.NewTokenError(errors.TokenClaims, nil))
		return
	}

	var body messageRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, operation, err)
		return
	}

	req, err := h.builder.Message(accessToken, body.Title, body.Content, body.URL)
	if err != nil {
		respondError(c, h.logger, operation, err)
		return
	}

	resp, err := send(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, operation, err)
		return
	}

	out := resultFields(resp.Result)
	out["requestId"] = req.RequestID

	switch resp.Result.ResultStatus {
	case models.ResultSuccess, models.ResultAccepted:
		out["success"] = true
		out["status"] = statusSuccess
		if resp.MessageID != "" {
			out["messageId"] = resp.MessageID
		}
		if resp.ExtendInfo != "" {
			out["extendInfo"] = resp.ExtendInfo
		}
	case models.ResultFailed:
		out["success"] = false
		out["status"] = statusFailed
		out["message"] = resp.Result.ResultMessage
	default:
		out["success"] = false
		out["status"] = statusUnknown
		out["message"] = "Notification status is unknown. It may still be processed."
	}

	writeResult(c, out)
}
