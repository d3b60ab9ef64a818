package wallet

import (
	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/models"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultAgreementDescription = "Agreement payment - Monthly subscription"

// AgreementHandler drives the agreement (auto-debit) flow: prepare the
// contract, exchange the signed auth code, then charge with the access token.
type AgreementHandler struct {
	service GatewayService
	builder RequestBuilder
	logger  *zap.Logger
}

func NewAgreementHandler(service GatewayService, builder RequestBuilder, logger *zap.Logger) *AgreementHandler {
	return &AgreementHandler{
		service: service,
		builder: builder,
		logger:  logger,
	}
}

type prepareRequest struct {
	ContractDescription string `json:"contractDescription"`
}

// HandlePrepare handles POST /api/agreement/prepare
func (h *AgreementHandler) HandlePrepare(c *gin.Context) {
	var body prepareRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "prepare_authorization", err)
		return
	}

	resp, err := h.service.PrepareAuthorization(c.Request.Context(), body.ContractDescription)
	if err != nil {
		respondError(c, h.logger, "prepare_authorization", err)
		return
	}
	if resp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, resp.Result)
		return
	}
	if resp.AuthURL == "" {
		h.logger.Warn("authorization prepared without auth url",
			zap.String("correlation_id", middleware.GetCorrelationID(c)),
		)
	}

	out := resultFields(resp.Result)
	out["success"] = true
	out["authUrl"] = resp.AuthURL
	writeResult(c, out)
}

// HandleApplyToken handles POST /api/agreement/apply-token. The access token
// is returned to the caller as the future payment auth code.
func (h *AgreementHandler) HandleApplyToken(c *gin.Context) {
	var body applyTokenRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "apply_token", err)
		return
	}
	if body.code() == "" {
		respondError(c, h.logger, "apply_token", errors.NewValidationError("authCode is required"))
		return
	}

	resp, err := h.service.ApplyToken(c.Request.Context(), body.code())
	if err != nil {
		respondError(c, h.logger, "apply_token", err)
		return
	}
	if resp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, resp.Result)
		return
	}

	out := resultFields(resp.Result)
	out["success"] = true
	out["accessToken"] = resp.AccessToken
	out["customerId"] = resp.CustomerID
	out["accessTokenExpiryTime"] = resp.AccessTokenExpiryTime
	writeResult(c, out)
}

type agreementPayRequest struct {
	AccessToken      string `json:"accessToken"`
	CustomerID       string `json:"customerId"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	OrderDescription string `json:"orderDescription"`
}

// HandlePay handles POST /api/agreement/pay. The amount is in minor units.
func (h *AgreementHandler) HandlePay(c *gin.Context) {
	var body agreementPayRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "agreement_pay", err)
		return
	}
	if body.OrderDescription == "" {
		body.OrderDescription = defaultAgreementDescription
	}

	req, err := h.builder.AgreementPayment(body.AccessToken, body.Amount, body.Currency, body.OrderDescription)
	if err != nil {
		respondError(c, h.logger, "agreement_pay", err)
		return
	}
	if body.CustomerID != "" {
		req.Order.Buyer = &models.OrderBuyer{ReferenceBuyerID: body.CustomerID}
	}

	resp, err := h.service.Pay(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "agreement_pay", err)
		return
	}

	out := resultFields(resp.Result)
	out["paymentRequestId"] = req.PaymentRequestID
	if resp.PaymentID != "" {
		out["paymentId"] = resp.PaymentID
	}

	switch resp.Result.ResultStatus {
	case models.ResultSuccess:
		out["success"] = true
		out["status"] = statusSuccess
		if resp.PaymentTime != "" {
			out["paymentTime"] = resp.PaymentTime
		}
	case models.ResultFailed:
		out["success"] = false
		out["status"] = statusFailed
		out["message"] = resp.Result.ResultMessage
	default:
		out["success"] = false
		out["status"] = statusPending
		out["message"] = "Payment status is unknown. Query the payment by paymentRequestId."
	}

	writeResult(c, out)
}
