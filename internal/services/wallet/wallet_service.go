package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"wallet-gateway/internal/models"
	"wallet-gateway/pkg/errors"

	"go.uber.org/zap"
)

// Gateway paths.
const (
	PathApplyToken           = "/v1/authorizations/applyToken"
	PathPrepareAuthorization = "/v1/authorizations/prepare"
	PathInquiryUserInfo      = "/v1/users/inquiryUserInfo"
	PathInquiryUserCardList  = "/v1/users/inquiryUserCardList"
	PathInquiryMerchantInfo  = "/v1/merchants/inquiryMerchantInfo"
	PathPay                  = "/v1/payments/pay"
	PathInquiryPayment       = "/v1/payments/inquiryPayment"
	PathRefund               = "/v1/payments/refund"
	PathInquiryRefund        = "/v1/payments/inquiryRefund"
	PathSendInbox            = "/v1/messages/sendInbox"
	PathSendPush             = "/v1/messages/sendPush"
)

const (
	grantTypeAuthorizationCode = "AUTHORIZATION_CODE"
	scopeAgreementPay          = "AGREEMENT_PAY"
	agreementLanguage          = "en-US"
)

// Sender is the signed transport the operations run over.
type Sender interface {
	Send(ctx context.Context, method, path string, params interface{}) (json.RawMessage, error)
}

// MetricsRecorder observes the business outcome of each operation.
type MetricsRecorder interface {
	RecordOperationResult(operation string, status models.ResultStatus)
}

// Service exposes the gateway operations as typed calls. A Failed or Unknown
// result status is returned as data with a nil error; only transport and
// validation problems are errors.
type Service struct {
	sender  Sender
	metrics MetricsRecorder
	logger  *zap.Logger
}

func NewService(sender Sender, metrics MetricsRecorder, logger *zap.Logger) *Service {
	return &Service{
		sender:  sender,
		metrics: metrics,
		logger:  logger,
	}
}

// ApplyToken exchanges a user authorization code for an access token.
func (s *Service) ApplyToken(ctx context.Context, authCode string) (*models.ApplyTokenResponse, error) {
	if authCode == "" {
		return nil, errors.NewValidationError("authCode is required")
	}

	params := struct {
		GrantType string `json:"grantType"`
		AuthCode  string `json:"authCode"`
	}{grantTypeAuthorizationCode, authCode}

	resp := &models.ApplyTokenResponse{}
	if err := s.call(ctx, "apply_token", PathApplyToken, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) InquiryUserInfo(ctx context.Context, accessToken string) (*models.InquiryUserInfoResponse, error) {
	if accessToken == "" {
		return nil, errors.NewValidationError("accessToken is required")
	}

	resp := &models.InquiryUserInfoResponse{}
	if err := s.call(ctx, "inquiry_user_info", PathInquiryUserInfo, accessTokenParams{accessToken}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) InquiryUserCardList(ctx context.Context, accessToken string) (*models.InquiryUserCardListResponse, error) {
	if accessToken == "" {
		return nil, errors.NewValidationError("accessToken is required")
	}

	resp := &models.InquiryUserCardListResponse{}
	if err := s.call(ctx, "inquiry_user_card_list", PathInquiryUserCardList, accessTokenParams{accessToken}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// InquiryMerchantInfo returns the merchant profile as seen by the user
// holding accessToken.
func (s *Service) InquiryMerchantInfo(ctx context.Context, accessToken string) (*models.InquiryMerchantInfoResponse, error) {
	if accessToken == "" {
		return nil, errors.NewValidationError("accessToken is required")
	}

	resp := &models.InquiryMerchantInfoResponse{}
	if err := s.call(ctx, "inquiry_merchant_info", PathInquiryMerchantInfo, accessTokenParams{accessToken}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PrepareAuthorization requests an agreement-pay authorization URL carrying
// the contract description shown to the user.
func (s *Service) PrepareAuthorization(ctx context.Context, description string) (*models.PrepareAuthorizationResponse, error) {
	if description == "" {
		return nil, errors.NewValidationError("contract description is required")
	}

	extendInfo, err := json.Marshal(struct {
		Language     string `json:"language"`
		ContractDesc string `json:"contractDesc"`
	}{agreementLanguage, description})
	if err != nil {
		return nil, errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "extendInfo serialization failed", "")
	}

	params := struct {
		Scopes     []string `json:"scopes"`
		ExtendInfo string   `json:"extendInfo"`
	}{[]string{scopeAgreementPay}, string(extendInfo)}

	resp := &models.PrepareAuthorizationResponse{}
	if err := s.call(ctx, "prepare_authorization", PathPrepareAuthorization, params, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Pay creates a payment. PaymentRequestID is the idempotency key: the gateway
// returns the original payment for a repeated id.
func (s *Service) Pay(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	if req == nil {
		return nil, errors.NewValidationError("payment request is required")
	}
	if req.PaymentRequestID == "" {
		return nil, errors.NewValidationError("paymentRequestId is required")
	}
	if req.ProductCode == "" {
		return nil, errors.NewValidationError("productCode is required")
	}
	if req.PaymentAmount.Value == "" || req.PaymentAmount.Currency == "" {
		return nil, errors.NewValidationError("paymentAmount is required")
	}
	if req.ProductCode == models.ProductAgreementPayment && req.PaymentAuthCode == "" {
		return nil, errors.NewValidationError("paymentAuthCode is required for agreement payments")
	}

	resp := &models.PaymentResponse{}
	if err := s.call(ctx, "pay", PathPay, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// InquiryPayment looks a payment up by gateway id or by request id.
func (s *Service) InquiryPayment(ctx context.Context, req *models.InquiryPaymentRequest) (*models.InquiryPaymentResponse, error) {
	if req == nil || (req.PaymentID == "" && req.PaymentRequestID == "") {
		return nil, errors.NewValidationError("paymentId or paymentRequestId is required")
	}

	resp := &models.InquiryPaymentResponse{}
	if err := s.call(ctx, "inquiry_payment", PathInquiryPayment, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Refund requests a refund. RefundRequestID is the idempotency key and the id
// later used to reconcile an indeterminate result.
func (s *Service) Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	if req == nil {
		return nil, errors.NewValidationError("refund request is required")
	}
	if req.RefundRequestID == "" {
		return nil, errors.NewValidationError("refundRequestId is required")
	}
	if req.PaymentID == "" && req.PaymentRequestID == "" {
		return nil, errors.NewValidationError("paymentId or paymentRequestId is required")
	}
	if req.RefundAmount.Value == "" || req.RefundAmount.Currency == "" {
		return nil, errors.NewValidationError("refundAmount is required")
	}

	resp := &models.RefundResponse{}
	if err := s.call(ctx, "refund", PathRefund, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) InquiryRefund(ctx context.Context, req *models.InquiryRefundRequest) (*models.InquiryRefundResponse, error) {
	if req == nil || (req.RefundID == "" && req.RefundRequestID == "") {
		return nil, errors.NewValidationError("refundId or refundRequestId is required")
	}

	resp := &models.InquiryRefundResponse{}
	if err := s.call(ctx, "inquiry_refund", PathInquiryRefund, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) SendInbox(ctx context.Context, req *models.SendInboxRequest) (*models.SendInboxResponse, error) {
	if err := validateMessage(req); err != nil {
		return nil, err
	}
	msg := *req
	msg.TemplateCode = models.TemplateInbox

	resp := &models.SendInboxResponse{}
	if err := s.call(ctx, "send_inbox", PathSendInbox, &msg, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) SendPush(ctx context.Context, req *models.SendPushRequest) (*models.SendPushResponse, error) {
	if err := validateMessage(req); err != nil {
		return nil, err
	}
	msg := *req
	msg.TemplateCode = models.TemplatePush

	resp := &models.SendPushResponse{}
	if err := s.call(ctx, "send_push", PathSendPush, &msg, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

type accessTokenParams struct {
	AccessToken string `json:"accessToken"`
}

func validateMessage(req *models.MessageRequest) error {
	if req == nil {
		return errors.NewValidationError("message request is required")
	}
	if req.AccessToken == "" {
		return errors.NewValidationError("accessToken is required")
	}
	if req.RequestID == "" {
		return errors.NewValidationError("requestId is required")
	}
	if len(req.Templates) == 0 {
		return errors.NewValidationError("at least one template is required")
	}
	return nil
}

// call sends params and decodes the reply into out. A reply that is JSON but
// not an object matching out is reported as a response error.
func (s *Service) call(ctx context.Context, operation, path string, params interface{}, out models.Enveloped) error {
	start := time.Now()

	raw, err := s.sender.Send(ctx, http.MethodPost, path, params)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.NewResponseError(err, path)
	}

	result := out.Envelope()
	result.Normalize()

	if s.metrics != nil {
		s.metrics.RecordOperationResult(operation, result.ResultStatus)
	}

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("result_status", string(result.ResultStatus)),
		zap.String("result_code", result.ResultCode),
		zap.Duration("duration", time.Since(start)),
	}
	if result.ResultStatus == models.ResultFailed {
		s.logger.Info("gateway operation returned business failure", append(fields, zap.String("result_message", result.ResultMessage))...)
	} else {
		s.logger.Debug("gateway operation completed", fields...)
	}

	return nil
}
