package wallet

import (
	"context"

	"wallet-gateway/internal/models"
	"wallet-gateway/internal/services/claims"
	"wallet-gateway/internal/services/reconcile"
	walletsvc "wallet-gateway/internal/services/wallet"
)

// GatewayService is the wallet gateway operation set.
type GatewayService interface {
	ApplyToken(ctx context.Context, authCode string) (*models.ApplyTokenResponse, error)
	InquiryUserInfo(ctx context.Context, accessToken string) (*models.InquiryUserInfoResponse, error)
	InquiryUserCardList(ctx context.Context, accessToken string) (*models.InquiryUserCardListResponse, error)
	InquiryMerchantInfo(ctx context.Context, accessToken string) (*models.InquiryMerchantInfoResponse, error)
	PrepareAuthorization(ctx context.Context, description string) (*models.PrepareAuthorizationResponse, error)
	Pay(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error)
	InquiryPayment(ctx context.Context, req *models.InquiryPaymentRequest) (*models.InquiryPaymentResponse, error)
	Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error)
	SendInbox(ctx context.Context, req *models.SendInboxRequest) (*models.SendInboxResponse, error)
	SendPush(ctx context.Context, req *models.SendPushRequest) (*models.SendPushResponse, error)
}

// RequestBuilder turns boundary input into gateway requests with fresh
// idempotency keys.
type RequestBuilder interface {
	OnlinePurchase(p walletsvc.OnlinePurchase) (*models.PaymentRequest, error)
	AgreementPayment(accessToken string, amount int64, currency, description string) (*models.PaymentRequest, error)
	Refund(paymentID string, amount float64) (*models.RefundRequest, error)
	Message(accessToken, title, content, url string) (*models.MessageRequest, error)
}

type SessionIssuer interface {
	IssueSession(s claims.Session) (string, error)
}

// RefundReconciler runs a detached reconciliation loop and delivers one
// outcome on the returned channel.
type RefundReconciler interface {
	Start(ctx context.Context, refundRequestID string) <-chan *reconcile.Outcome
}

type TokenMetrics interface {
	RecordTokenIssued()
}
