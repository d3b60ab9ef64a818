package models

import (
	"encoding/json"
)

// ResultStatus is the gateway's coarse outcome for a call.
type ResultStatus string

const (
	ResultSuccess  ResultStatus = "S"
	ResultAccepted ResultStatus = "A"
	ResultUnknown  ResultStatus = "U"
	ResultFailed   ResultStatus = "F"
)

// UnmarshalJSON maps any value outside S/A/U/F, including an absent one, to
// ResultUnknown so callers never branch on an unexpected letter.
func (s *ResultStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseResultStatus(raw)
	return nil
}

// ParseResultStatus normalises a wire status.
func ParseResultStatus(raw string) ResultStatus {
	switch ResultStatus(raw) {
	case ResultSuccess, ResultAccepted, ResultUnknown, ResultFailed:
		return ResultStatus(raw)
	default:
		return ResultUnknown
	}
}

func (s ResultStatus) String() string {
	switch s {
	case ResultSuccess:
		return "success"
	case ResultAccepted:
		return "accepted"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// GatewayResult is the envelope every gateway reply carries. A Failed status
// is a business outcome, not a Go error.
type GatewayResult struct {
	ResultStatus  ResultStatus `json:"resultStatus"`
	ResultCode    string       `json:"resultCode"`
	ResultMessage string       `json:"resultMessage"`
}

// Normalize fills in an absent status.
func (r *GatewayResult) Normalize() {
	if r.ResultStatus == "" {
		r.ResultStatus = ResultUnknown
	}
}

// Enveloped is implemented by every typed gateway response.
type Enveloped interface {
	Envelope() *GatewayResult
}

// Product codes accepted by /v1/payments/pay.
const (
	ProductOnlinePurchase            = "ONLINE_PURCHASE"
	ProductAgreementPayment          = "AGREEMENT_PAYMENT"
	ProductOnlinePurchaseAuthCapture = "ONLINE_PURCHASE_AUTH_CAPTURE"
)

// Inner refund statuses reported by /v1/payments/inquiryRefund.
const (
	RefundStatusSuccess    = "SUCCESS"
	RefundStatusFail       = "FAIL"
	RefundStatusProcessing = "PROCESSING"
)

// Result codes the core branches on.
const (
	CodeRefundNotExist = "REFUND_NOT_EXIST"
	CodeNotExist       = "NOT_EXIST"
)

type ApplyTokenResponse struct {
	Result                 GatewayResult `json:"result"`
	AccessToken            string        `json:"accessToken"`
	AccessTokenExpiryTime  string        `json:"accessTokenExpiryTime,omitempty"`
	RefreshToken           string        `json:"refreshToken,omitempty"`
	RefreshTokenExpiryTime string        `json:"refreshTokenExpiryTime,omitempty"`
	CustomerID             string        `json:"customerId"`
}

func (r *ApplyTokenResponse) Envelope() *GatewayResult { return &r.Result }

type PersonName struct {
	FullName   string `json:"fullName,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	SecondName string `json:"secondName,omitempty"`
	ThirdName  string `json:"thirdName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

type LoginIDInfo struct {
	LoginID     string `json:"loginId,omitempty"`
	HashLoginID string `json:"hashLoginId,omitempty"`
	MaskLoginID string `json:"maskLoginId,omitempty"`
	LoginIDType string `json:"loginIdType,omitempty"`
}

type ContactInfo struct {
	ContactType string `json:"contactType"`
	ContactNo   string `json:"contactNo"`
}

type UserInfo struct {
	UserID           string        `json:"userId"`
	LoginIDInfos     []LoginIDInfo `json:"loginIdInfos,omitempty"`
	UserName         PersonName    `json:"userName"`
	UserNameInArabic PersonName    `json:"userNameInArabic"`
	Avatar           string        `json:"avatar,omitempty"`
	Gender           string        `json:"gender,omitempty"`
	BirthDate        string        `json:"birthDate,omitempty"`
	Nationality      string        `json:"nationality,omitempty"`
	ContactInfos     []ContactInfo `json:"contactInfos,omitempty"`
}

type InquiryUserInfoResponse struct {
	Result   GatewayResult `json:"result"`
	UserInfo UserInfo      `json:"userInfo"`
}

func (r *InquiryUserInfoResponse) Envelope() *GatewayResult { return &r.Result }

type Card struct {
	MaskedCardNo  string `json:"maskedCardNo"`
	AccountNumber string `json:"accountNumber"`
}

type InquiryUserCardListResponse struct {
	Result   GatewayResult `json:"result"`
	CardList []Card        `json:"cardList"`
}

func (r *InquiryUserCardListResponse) Envelope() *GatewayResult { return &r.Result }

type MerchantInfo struct {
	MerchantID     string `json:"merchantId"`
	MerchantName   string `json:"merchantName"`
	MerchantStatus string `json:"merchantStatus,omitempty"`
	LogoURL        string `json:"logoUrl,omitempty"`
}

type InquiryMerchantInfoResponse struct {
	Result       GatewayResult `json:"result"`
	MerchantInfo MerchantInfo  `json:"merchantInfo"`
}

func (r *InquiryMerchantInfoResponse) Envelope() *GatewayResult { return &r.Result }

type PrepareAuthorizationResponse struct {
	Result  GatewayResult `json:"result"`
	AuthURL string        `json:"authUrl"`
}

func (r *PrepareAuthorizationResponse) Envelope() *GatewayResult { return &r.Result }

// Amount values are strings in the currency's minor unit.
type Amount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

type OrderBuyer struct {
	ReferenceBuyerID string `json:"referenceBuyerId,omitempty"`
}

type Order struct {
	OrderDescription string      `json:"orderDescription"`
	Buyer            *OrderBuyer `json:"buyer,omitempty"`
}

// PaymentRequest field order is the serialization order and therefore part of
// what gets signed.
type PaymentRequest struct {
	ProductCode        string `json:"productCode"`
	PaymentRequestID   string `json:"paymentRequestId"`
	PaymentAuthCode    string `json:"paymentAuthCode,omitempty"`
	PaymentAmount      Amount `json:"paymentAmount"`
	Order              Order  `json:"order"`
	PaymentExpiryTime  string `json:"paymentExpiryTime,omitempty"`
	PaymentNotifyURL   string `json:"paymentNotifyUrl,omitempty"`
	PaymentRedirectURL string `json:"paymentRedirectUrl,omitempty"`
	ExtendInfo         string `json:"extendInfo,omitempty"`
}

type RedirectActionForm struct {
	RedirectURL string `json:"redirectUrl"`
	Method      string `json:"method,omitempty"`
}

type PaymentResponse struct {
	Result             GatewayResult      `json:"result"`
	PaymentID          string             `json:"paymentId"`
	PaymentRequestID   string             `json:"paymentRequestId"`
	PaymentTime        string             `json:"paymentTime,omitempty"`
	RedirectActionForm RedirectActionForm `json:"redirectActionForm"`
	ExtendInfo         string             `json:"extendInfo,omitempty"`
}

func (r *PaymentResponse) Envelope() *GatewayResult { return &r.Result }

// RedirectURL is where the client must send the user to confirm payment.
func (r *PaymentResponse) RedirectURL() string {
	return r.RedirectActionForm.RedirectURL
}

type InquiryPaymentRequest struct {
	PaymentID        string `json:"paymentId,omitempty"`
	PaymentRequestID string `json:"paymentRequestId,omitempty"`
}

type InquiryPaymentResponse struct {
	Result           GatewayResult `json:"result"`
	PaymentID        string        `json:"paymentId,omitempty"`
	PaymentRequestID string        `json:"paymentRequestId,omitempty"`
	PaymentStatus    string        `json:"paymentStatus,omitempty"`
	PaymentTime      string        `json:"paymentTime,omitempty"`
	PaymentAmount    Amount        `json:"paymentAmount"`
	ExtendInfo       string        `json:"extendInfo,omitempty"`
}

func (r *InquiryPaymentResponse) Envelope() *GatewayResult { return &r.Result }

type RefundRequest struct {
	RefundRequestID  string `json:"refundRequestId"`
	PaymentID        string `json:"paymentId,omitempty"`
	PaymentRequestID string `json:"paymentRequestId,omitempty"`
	CaptureID        string `json:"captureId,omitempty"`
	RefundAmount     Amount `json:"refundAmount"`
	RefundReason     string `json:"refundReason,omitempty"`
	ExtendInfo       string `json:"extendInfo,omitempty"`
}

type RefundResponse struct {
	Result     GatewayResult `json:"result"`
	RefundID   string        `json:"refundId,omitempty"`
	RefundTime string        `json:"refundTime,omitempty"`
}

func (r *RefundResponse) Envelope() *GatewayResult { return &r.Result }

type InquiryRefundRequest struct {
	RefundID        string `json:"refundId,omitempty"`
	RefundRequestID string `json:"refundRequestId,omitempty"`
}

type InquiryRefundResponse struct {
	Result           GatewayResult `json:"result"`
	RefundID         string        `json:"refundId,omitempty"`
	RefundRequestID  string        `json:"refundRequestId,omitempty"`
	RefundAmount     Amount        `json:"refundAmount"`
	RefundReason     string        `json:"refundReason,omitempty"`
	RefundTime       string        `json:"refundTime,omitempty"`
	RefundStatus     string        `json:"refundStatus,omitempty"`
	RefundFailReason string        `json:"refundFailReason,omitempty"`
}

func (r *InquiryRefundResponse) Envelope() *GatewayResult { return &r.Result }

// Message template codes.
const (
	TemplateInbox = "MINI_APP_COMMON_INBOX"
	TemplatePush  = "MINI_APP_COMMON_PUSH"
)

type MessageTemplate struct {
	TemplateParameters map[string]string `json:"templateParameters"`
}

// MessageRequest is the body of both sendInbox and sendPush.
type MessageRequest struct {
	AccessToken  string            `json:"accessToken"`
	RequestID    string            `json:"requestId"`
	TemplateCode string            `json:"templateCode"`
	Templates    []MessageTemplate `json:"templates"`
}

type SendInboxRequest = MessageRequest
type SendPushRequest = MessageRequest

type MessageResponse struct {
	Result     GatewayResult `json:"result"`
	MessageID  string        `json:"messageId,omitempty"`
	ExtendInfo string        `json:"extendInfo,omitempty"`
}

func (r *MessageResponse) Envelope() *GatewayResult { return &r.Result }

type SendInboxResponse = MessageResponse
type SendPushResponse = MessageResponse
