package wallet

import (
	"net/http"

	"wallet-gateway/internal/middleware"
	"wallet-gateway/internal/models"
	"wallet-gateway/internal/services/claims"
	"wallet-gateway/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler exchanges mini-app auth codes for claims tokens and serves the
// user endpoints behind them.
type AuthHandler struct {
	service GatewayService
	issuer  SessionIssuer
	metrics TokenMetrics
	logger  *zap.Logger
}

func NewAuthHandler(service GatewayService, issuer SessionIssuer, metrics TokenMetrics, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		issuer:  issuer,
		metrics: metrics,
		logger:  logger,
	}
}

type applyTokenRequest struct {
	AuthCode       string `json:"authCode"`
	LegacyAuthCode string `json:"auth_code"`
}

func (r applyTokenRequest) code() string {
	if r.AuthCode != "" {
		return r.AuthCode
	}
	return r.LegacyAuthCode
}

// HandleApplyToken handles POST /api/auth/apply-token
func (h *AuthHandler) HandleApplyToken(c *gin.Context) {
	ctx := c.Request.Context()

	var req applyTokenRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, h.logger, "apply_token", err)
		return
	}
	if req.code() == "" {
		respondError(c, h.logger, "apply_token", errors.NewValidationError("authCode is required"))
		return
	}

	tokenResp, err := h.service.ApplyToken(ctx, req.code())
	if err != nil {
		respondError(c, h.logger, "apply_token", err)
		return
	}
	if tokenResp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, tokenResp.Result)
		return
	}

	infoResp, err := h.service.InquiryUserInfo(ctx, tokenResp.AccessToken)
	if err != nil {
		respondError(c, h.logger, "inquiry_user_info", err)
		return
	}
	if infoResp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, infoResp.Result)
		return
	}

	token, err := h.issuer.IssueSession(claims.Session{
		UserID:      infoResp.UserInfo.UserID,
		AccessToken: tokenResp.AccessToken,
	})
	if err != nil {
		respondError(c, h.logger, "issue_token", err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordTokenIssued()
	}

	h.logger.Info("claims token issued",
		zap.String("correlation_id", middleware.GetCorrelationID(c)),
		zap.String("user_id", infoResp.UserInfo.UserID),
	)

	markResult(c, infoResp.Result.ResultStatus)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"token":    token,
		"userInfo": infoResp.UserInfo,
	})
}

// HandleUserInfo handles GET /api/user/info
func (h *AuthHandler) HandleUserInfo(c *gin.Context) {
	_, accessToken, ok := sessionFrom(c)
	if !ok {
		respondError(c, h.logger, "inquiry_user_info", errors.NewTokenError(errors.TokenClaims, nil))
		return
	}

	resp, err := h.service.InquiryUserInfo(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, h.logger, "inquiry_user_info", err)
		return
	}
	if resp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, resp.Result)
		return
	}

	markResult(c, resp.Result.ResultStatus)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"userInfo": resp.UserInfo,
	})
}

// HandleUserCards handles GET /api/user/cards
func (h *AuthHandler) HandleUserCards(c *gin.Context) {
	_, accessToken, ok := sessionFrom(c)
	if !ok {
		respondError(c, h.logger, "inquiry_user_cards", errors.NewTokenError(errors.TokenClaims, nil))
		return
	}

	resp, err := h.service.InquiryUserCardList(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, h.logger, "inquiry_user_cards", err)
		return
	}
	if resp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, resp.Result)
		return
	}

	cards := resp.CardList
	if cards == nil {
		cards = []models.Card{}
	}
	markResult(c, resp.Result.ResultStatus)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"cardList": cards,
	})
}

// HandleMerchantInfo handles GET /api/merchant/info
func (h *AuthHandler) HandleMerchantInfo(c *gin.Context) {
	_, accessToken, ok := sessionFrom(c)
	if !ok {
		respondError(c, h.logger, "inquiry_merchant_info", errors.NewTokenError(errors.TokenClaims, nil))
		return
	}

	resp, err := h.service.InquiryMerchantInfo(c.Request.Context(), accessToken)
	if err != nil {
		respondError(c, h.logger, "inquiry_merchant_info", err)
		return
	}
	if resp.Result.ResultStatus != models.ResultSuccess {
		respondBusinessFailure(c, resp.Result)
		return
	}

	markResult(c, resp.Result.ResultStatus)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"merchantInfo": resp.MerchantInfo,
	})
}
