package wallet

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups the wallet endpoints for registration.
type Handlers struct {
	Auth         *AuthHandler
	Payment      *PaymentHandler
	Agreement    *AgreementHandler
	Notification *NotificationHandler
}

// RegisterRoutes mounts every wallet endpoint under /api. requireSession
// guards the endpoints that act on behalf of a signed-in user.
func (h *Handlers) RegisterRoutes(router gin.IRouter, requireSession gin.HandlerFunc) {
	api := router.Group("/api")

	api.POST("/auth/apply-token", h.Auth.HandleApplyToken)
	api.GET("/user/info", requireSession, h.Auth.HandleUserInfo)
	api.GET("/user/cards", requireSession, h.Auth.HandleUserCards)
	api.GET("/merchant/info", requireSession, h.Auth.HandleMerchantInfo)

	api.POST("/payment/create", requireSession, h.Payment.HandleCreatePayment)
	api.POST("/payment/inquiry", h.Payment.HandleInquiryPayment)
	api.POST("/payment/refund", h.Payment.HandleRefund)

	api.POST("/agreement/prepare", h.Agreement.HandlePrepare)
	api.POST("/agreement/apply-token", h.Agreement.HandleApplyToken)
	api.POST("/agreement/pay", h.Agreement.HandlePay)

	api.POST("/notification/send-inbox", requireSession, h.Notification.HandleSendInbox)
	api.POST("/notification/send-push", requireSession, h.Notification.HandleSendPush)
}
