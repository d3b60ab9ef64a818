package wallet

import (
	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/models"
	"wallet-gateway/internal/services/reconcile"
	walletsvc "wallet-gateway/internal/services/wallet"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	refundPendingMessage  = "Refund is being processed. Status is unknown."
	refundNotFoundMessage = "Refund not found in wallet system"
	codeRefundFailed      = "REFUND_FAILED"
)

// PaymentHandler serves cashier payments, payment inquiry and refunds.
type PaymentHandler struct {
	service    GatewayService
	builder    RequestBuilder
	reconciler RefundReconciler
	logger     *zap.Logger
}

func NewPaymentHandler(service GatewayService, builder RequestBuilder, reconciler RefundReconciler, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service:    service,
		builder:    builder,
		reconciler: reconciler,
		logger:     logger,
	}
}

type createPaymentRequest struct {
	Amount           int64  `json:"amount"`
	OrderDescription string `json:"orderDescription"`
	ProductID        string `json:"productId"`
	Quantity         int    `json:"quantity"`
	OrderID          string `json:"orderId"`
}

// HandleCreatePayment handles POST /api/payment/create. The amount is in
// minor units.
func (h *PaymentHandler) HandleCreatePayment(c *gin.Context) {
	userID, _, ok := sessionFrom(c)
	if !ok {
		respondError(c, h.logger, "pay", errors.NewTokenError(errors.TokenClaims, nil))
		return
	}

	var body createPaymentRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "pay", err)
		return
	}

	req, err := h.builder.OnlinePurchase(walletsvc.OnlinePurchase{
		UserID:           userID,
		Amount:           body.Amount,
		OrderDescription: body.OrderDescription,
		OrderID:          body.OrderID,
		ProductID:        body.ProductID,
		Quantity:         body.Quantity,
	})
	if err != nil {
		respondError(c, h.logger, "pay", err)
		return
	}

	resp, err := h.service.Pay(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, "pay", err)
		return
	}

	out := resultFields(resp.Result)
	out["paymentRequestId"] = req.PaymentRequestID
	out["amount"] = body.Amount
	if resp.PaymentID != "" {
		out["paymentId"] = resp.PaymentID
	}

	switch resp.Result.ResultStatus {
	case models.ResultAccepted, models.ResultSuccess:
		if url := resp.RedirectURL(); url != "" {
			out["success"] = true
			out["paymentUrl"] = url
		} else {
			h.logger.Warn("payment accepted without redirect url",
				zap.String("correlation_id", middleware.GetCorrelationID(c)),
				zap.String("payment_request_id", req.PaymentRequestID),
			)
			out["success"] = false
			out["error"] = "No redirect URL received from payment API"
		}
	default:
		out["success"] = false
	}

	writeResult(c, out)
}

type inquiryPaymentRequest struct {
	PaymentID        string `json:"paymentId"`
	PaymentRequestID string `json:"paymentRequestId"`
}

// HandleInquiryPayment handles POST /api/payment/inquiry
func (h *PaymentHandler) HandleInquiryPayment(c *gin.Context) {
	var body inquiryPaymentRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "inquiry_payment", err)
		return
	}

	resp, err := h.service.InquiryPayment(c.Request.Context(), &models.InquiryPaymentRequest{
		PaymentID:        body.PaymentID,
		PaymentRequestID: body.PaymentRequestID,
	})
	if err != nil {
		respondError(c, h.logger, "inquiry_payment", err)
		return
	}

	out := resultFields(resp.Result)
	out["success"] = resp.Result.ResultStatus == models.ResultSuccess
	out["paymentId"] = resp.PaymentID
	out["paymentRequestId"] = resp.PaymentRequestID
	out["paymentStatus"] = resp.PaymentStatus
	out["paymentAmount"] = resp.PaymentAmount
	if resp.PaymentTime != "" {
		out["paymentTime"] = resp.PaymentTime
	}
	writeResult(c, out)
}

type refundRequest struct {
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
}

// HandleRefund handles POST /api/payment/refund. The amount is in major
// units. An unknown or accepted reply is reconciled before answering; if the
// caller goes away the reconciliation keeps running on its own.
func (h *PaymentHandler) HandleRefund(c *gin.Context) {
	ctx := c.Request.Context()

	var body refundRequest
	if err := bindJSON(c, &body); err != nil {
		respondError(c, h.logger, "refund", err)
		return
	}

	req, err := h.builder.Refund(body.PaymentID, body.Amount)
	if err != nil {
		respondError(c, h.logger, "refund", err)
		return
	}

	resp, err := h.service.Refund(ctx, req)
	if err != nil {
		respondError(c, h.logger, "refund", err)
		return
	}

	logger := h.logger.With(
		zap.String("correlation_id", middleware.GetCorrelationID(c)),
		zap.String("refund_request_id", req.RefundRequestID),
	)

	switch resp.Result.ResultStatus {
	case models.ResultSuccess:
		writeResult(c, refundSuccess(req.RefundRequestID, resp.Result, resp.RefundID, resp.RefundTime))
		return
	case models.ResultFailed:
		writeResult(c, refundFailure(req.RefundRequestID, resp.Result))
		return
	}

	logger.Info("refund outcome not final, reconciling",
		zap.String("result_status", string(resp.Result.ResultStatus)),
	)

	select {
	case outcome, ok := <-h.reconciler.Start(ctx, req.RefundRequestID):
		if !ok || outcome == nil {
			writeResult(c, refundPending(req.RefundRequestID, resp.Result))
			return
		}
		writeResult(c, refundFromOutcome(outcome, resp.Result))
	case <-ctx.Done():
		logger.Warn("client gone before refund reconciled", zap.Error(ctx.Err()))
	}
}

func refundFromOutcome(outcome *reconcile.Outcome, initial models.GatewayResult) gin.H {
	id := outcome.RefundRequestID

	switch outcome.State {
	case reconcile.StateSucceeded:
		inq := outcome.LastInquiry
		return refundSuccess(id, inq.Result, inq.RefundID, inq.RefundTime)
	case reconcile.StateFailed:
		return refundFailure(id, models.GatewayResult{
			ResultStatus:  models.ResultFailed,
			ResultCode:    codeRefundFailed,
			ResultMessage: outcome.LastInquiry.RefundFailReason,
		})
	case reconcile.StateNotFound:
		return refundFailure(id, models.GatewayResult{
			ResultStatus:  models.ResultFailed,
			ResultCode:    models.CodeRefundNotExist,
			ResultMessage: refundNotFoundMessage,
		})
	default:
		out := refundPending(id, initial)
		out["reconciliationState"] = outcome.State.String()
		out["attempts"] = outcome.Attempts
		return out
	}
}

func refundSuccess(refundRequestID string, result models.GatewayResult, refundID, refundTime string) gin.H {
	out := resultFields(result)
	out["success"] = true
	out["status"] = statusSuccess
	out["refundRequestId"] = refundRequestID
	if refundID != "" {
		out["refundId"] = refundID
	}
	if refundTime != "" {
		out["refundTime"] = refundTime
	}
	return out
}

func refundFailure(refundRequestID string, result models.GatewayResult) gin.H {
	out := resultFields(result)
	out["success"] = false
	out["status"] = statusFailed
	out["refundRequestId"] = refundRequestID
	out["message"] = result.ResultMessage
	return out
}

func refundPending(refundRequestID string, result models.GatewayResult) gin.H {
	out := resultFields(result)
	out["resultStatus"] = models.ResultUnknown
	out["success"] = false
	out["status"] = statusPending
	out["refundRequestId"] = refundRequestID
	out["message"] = refundPendingMessage
	return out
}
