package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/models"
	"wallet-gateway/internal/services/claims"
	"wallet-gateway/internal/services/reconcile"
	walletsvc "wallet-gateway/internal/services/wallet"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testClaimsKey = []byte("0123456789abcdef0123456789abcdef")

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ApplyToken(ctx context.Context, authCode string) (*models.ApplyTokenResponse, error) {
	args := m.Called(ctx, authCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ApplyTokenResponse), args.Error(1)
}

func (m *mockGateway) InquiryUserInfo(ctx context.Context, accessToken string) (*models.InquiryUserInfoResponse, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryUserInfoResponse), args.Error(1)
}

func (m *mockGateway) InquiryUserCardList(ctx context.Context, accessToken string) (*models.InquiryUserCardListResponse, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryUserCardListResponse), args.Error(1)
}

func (m *mockGateway) InquiryMerchantInfo(ctx context.Context, accessToken string) (*models.InquiryMerchantInfoResponse, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryMerchantInfoResponse), args.Error(1)
}

func (m *mockGateway) PrepareAuthorization(ctx context.Context, description string) (*models.PrepareAuthorizationResponse, error) {
	args := m.Called(ctx, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PrepareAuthorizationResponse), args.Error(1)
}

func (m *mockGateway) Pay(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentResponse), args.Error(1)
}

func (m *mockGateway) InquiryPayment(ctx context.Context, req *models.InquiryPaymentRequest) (*models.InquiryPaymentResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryPaymentResponse), args.Error(1)
}

func (m *mockGateway) Refund(ctx context.Context, req *models.RefundRequest) (*models.RefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefundResponse), args.Error(1)
}

func (m *mockGateway) InquiryRefund(ctx context.Context, req *models.InquiryRefundRequest) (*models.InquiryRefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryRefundResponse), args.Error(1)
}

func (m *mockGateway) SendInbox(ctx context.Context, req *models.SendInboxRequest) (*models.SendInboxResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SendInboxResponse), args.Error(1)
}

func (m *mockGateway) SendPush(ctx context.Context, req *models.SendPushRequest) (*models.SendPushResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SendPushResponse), args.Error(1)
}

type mockTokenMetrics struct {
	mock.Mock
}

func (m *mockTokenMetrics) RecordTokenIssued() {
	m.Called()
}

// fakeReconciler hands back a fixed outcome for whatever id it is started with.
type fakeReconciler struct {
	mu      sync.Mutex
	outcome *reconcile.Outcome
	started []string
}

func (f *fakeReconciler) Start(_ context.Context, refundRequestID string) <-chan *reconcile.Outcome {
	f.mu.Lock()
	f.started = append(f.started, refundRequestID)
	f.mu.Unlock()

	ch := make(chan *reconcile.Outcome, 1)
	if f.outcome != nil {
		o := *f.outcome
		o.RefundRequestID = refundRequestID
		ch <- &o
	}
	close(ch)
	return ch
}

func (f *fakeReconciler) startedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.started...)
}

type testEnv struct {
	router  *gin.Engine
	gateway *mockGateway
	codec   *claims.Codec
	metrics *mockTokenMetrics
}

func newTestEnv(t *testing.T, reconciler RefundReconciler) *testEnv {
	t.Helper()
	return newTestEnvWithGateway(t, new(mockGateway), reconciler)
}

func newTestEnvWithGateway(t *testing.T, gateway *mockGateway, reconciler RefundReconciler) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	codec, err := claims.NewCodec(testClaimsKey)
	require.NoError(t, err)

	metrics := new(mockTokenMetrics)
	builder := walletsvc.NewCheckout(walletsvc.CheckoutConfig{PublicBaseURL: "https://merchant.example"})
	logger := zap.NewNop()

	handlers := &Handlers{
		Auth:         NewAuthHandler(gateway, codec, metrics, logger),
		Payment:      NewPaymentHandler(gateway, builder, reconciler, logger),
		Agreement:    NewAgreementHandler(gateway, builder, logger),
		Notification: NewNotificationHandler(gateway, builder, logger),
	}

	router := gin.New()
	handlers.RegisterRoutes(router, middleware.ClaimsAuthMiddleware(codec, nil, logger))

	return &testEnv{router: router, gateway: gateway, codec: codec, metrics: metrics}
}

func (e *testEnv) token(t *testing.T, userID, accessToken string) string {
	t.Helper()
	token, err := e.codec.IssueSession(claims.Session{UserID: userID, AccessToken: accessToken})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func successResult() models.GatewayResult {
	return models.GatewayResult{ResultStatus: models.ResultSuccess, ResultCode: "SUCCESS", ResultMessage: "success"}
}

func result(status models.ResultStatus, code, message string) models.GatewayResult {
	return models.GatewayResult{ResultStatus: status, ResultCode: code, ResultMessage: message}
}
