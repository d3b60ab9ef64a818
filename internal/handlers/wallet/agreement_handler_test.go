package wallet

import (
	"net/http"
	"strings"
	"testing"

	"wallet-gateway/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAgreementPrepare(t *testing.T) {
	env := newTestEnv(t, &fakeReconciler{})
	env.gateway.On("PrepareAuthorization", mock.Anything, "Monthly plan").
		Return(&models.PrepareAuthorizationResponse{Result: successResult(), AuthURL: "https://wallet.example/auth?x=1"}, nil).Once()

	w, body := env.do(t, http.MethodPost, "/api/agreement/prepare", map[string]string{"contractDescription": "Monthly plan"}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "https://wallet.example/auth?x=1", body["authUrl"])
}

func TestAgreementPrepare_NotSuccess(t *testing.T) {
	env := newTestEnv(t, &fakeReconciler{})
	env.gateway.On("PrepareAuthorization", mock.Anything, "Monthly plan").
		Return(&models.PrepareAuthorizationResponse{Result: result(models.ResultUnknown, "UNKNOWN_EXCEPTION", "")}, nil).Once()

	w, body := env.do(t, http.MethodPost, "/api/agreement/prepare", map[string]string{"contractDescription": "Monthly plan"}, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "U", body["resultStatus"])
	assert.Equal(t, false, body["success"])
}

func TestAgreementApplyToken(t *testing.T) {
	env := newTestEnv(t, &fakeReconciler{})
	env.gateway.On("ApplyToken", mock.Anything, "agreement-code").
		Return(&models.ApplyTokenResponse{
			Result:                successResult(),
			AccessToken:           "agreement-token",
			CustomerID:            "cust-7",
			AccessTokenExpiryTime: "2025-01-01T00:00:00+03:00",
		}, nil).Once()

	w, body := env.do(t, http.MethodPost, "/api/agreement/apply-token", map[string]string{"authCode": "agreement-code"}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "agreement-token", body["accessToken"])
	assert.Equal(t, "cust-7", body["customerId"])
	env.gateway.AssertNotCalled(t, "InquiryUserInfo", mock.Anything, mock.Anything)
}

func TestAgreementPay(t *testing.T) {
	env := newTestEnv(t, &fakeReconciler{})

	var sent *models.PaymentRequest
	env.gateway.On("Pay", mock.Anything, mock.AnythingOfType("*models.PaymentRequest")).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*models.PaymentRequest) }).
		Return(&models.PaymentResponse{Result: successResult(), PaymentID: "pay-7", PaymentTime: "2025-01-01T00:00:00+03:00"}, nil).Once()

	w, body := env.do(t, http.MethodPost, "/api/agreement/pay", map[string]interface{}{
		"accessToken": "agreement-token",
		"customerId":  "cust-7",
		"amount":      2500,
	}, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "SUCCESS", body["status"])
	assert.Equal(t, "pay-7", body["paymentId"])

	require.NotNil(t, sent)
	assert.Equal(t, models.ProductAgreementPayment, sent.ProductCode)
	assert.Equal(t, "agreement-token", sent.PaymentAuthCode)
	assert.Equal(t, "2500", sent.PaymentAmount.Value)
	assert.Equal(t, "IQD", sent.PaymentAmount.Currency)
	assert.Equal(t, defaultAgreementDescription, sent.Order.OrderDescription)
	assert.Equal(t, "cust-7", sent.Order.Buyer.ReferenceBuyerID)
	assert.True(t, strings.HasPrefix(sent.PaymentRequestID, "AGREEMENT-PAY-"))
}

func TestAgreementPay_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		status models.ResultStatus
		want   string
	}{
		{"failed", models.ResultFailed, "FAILED"},
		{"unknown", models.ResultUnknown, "PENDING"},
		{"accepted", models.ResultAccepted, "PENDING"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &fakeReconciler{})
			env.gateway.On("Pay", mock.Anything, mock.Anything).
				Return(&models.PaymentResponse{Result: result(tt.status, "X", "msg")}, nil).Once()

			w, body := env.do(t, http.MethodPost, "/api/agreement/pay", map[string]interface{}{
				"accessToken": "agreement-token", "amount": 100,
			}, "")

			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.want, body["status"])
			assert.NotEmpty(t, body["paymentRequestId"])
		})
	}
}

func TestAgreementPay_Validation(t *testing.T) {
	env := newTestEnv(t, &fakeReconciler{})

	w, _ := env.do(t, http.MethodPost, "/api/agreement/pay", map[string]interface{}{"amount": 100}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/agreement/pay", map[string]interface{}{"accessToken": "t", "amount": -1}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.gateway.AssertNotCalled(t, "Pay", mock.Anything, mock.Anything)
}
