package wallet

import (
	"math"
	"strconv"
	"strings"
	"time"

	"wallet-gateway/internal/models"
	"wallet-gateway/internal/utils"
	"wallet-gateway/pkg/errors"
)

// ExpiryTimeLayout is the paymentExpiryTime format (numeric offset, local zone).
const ExpiryTimeLayout = "2006-01-02T15:04:05-07:00"

const (
	// MinorUnitsPerMajor converts IQD to fils.
	MinorUnitsPerMajor = 1000

	DefaultCurrency      = "IQD"
	DefaultPaymentExpiry = 30 * time.Minute
	DefaultInboxURL      = "mini://platformapi/startapp?_ariver_appid=888888"
	DefaultRefundReason  = "Customer requested refund from mini app"

	redirectPath = "/payment-success.html"
	notifyPath   = "/api/webhook/payment-notify"
)

// CheckoutConfig holds the merchant-side values embedded in built requests.
type CheckoutConfig struct {
	PublicBaseURL   string
	Currency        string
	PaymentExpiry   time.Duration
	InboxDefaultURL string
}

// Checkout builds gateway requests from boundary inputs, minting a fresh
// idempotency key for every call.
type Checkout struct {
	cfg CheckoutConfig
	now func() time.Time
}

func NewCheckout(cfg CheckoutConfig) *Checkout {
	if cfg.Currency == "" {
		cfg.Currency = DefaultCurrency
	}
	if cfg.PaymentExpiry <= 0 {
		cfg.PaymentExpiry = DefaultPaymentExpiry
	}
	if cfg.InboxDefaultURL == "" {
		cfg.InboxDefaultURL = DefaultInboxURL
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &Checkout{cfg: cfg, now: time.Now}
}

// OnlinePurchase is a cashier payment the user confirms via the returned
// redirect URL. amount is already in minor units.
type OnlinePurchase struct {
	UserID           string
	Amount           int64
	OrderDescription string
	OrderID          string
	ProductID        string
	Quantity         int
}

func (c *Checkout) OnlinePurchase(p OnlinePurchase) (*models.PaymentRequest, error) {
	if p.Amount <= 0 {
		return nil, errors.NewValidationError("amount must be greater than 0")
	}
	if p.OrderDescription == "" {
		return nil, errors.NewValidationError("orderDescription is required")
	}

	now := c.now()
	requestID := utils.NewRequestID(utils.PaymentIDPrefix, now)

	extendInfo, err := models.BuildExtendInfo(models.ExtendInfo{
		PaymentRequestID: requestID,
		UserID:           p.UserID,
		OrderID:          p.OrderID,
		ProductID:        p.ProductID,
		Quantity:         p.Quantity,
		Timestamp:        now.Unix(),
	})
	if err != nil {
		return nil, errors.WrapDomainError(err, errors.KindInternal, errors.CodeInternal, "extendInfo serialization failed", "")
	}

	req := &models.PaymentRequest{
		ProductCode:      models.ProductOnlinePurchase,
		PaymentRequestID: requestID,
		PaymentAmount: models.Amount{
			Currency: c.cfg.Currency,
			Value:    strconv.FormatInt(p.Amount, 10),
		},
		Order:              models.Order{OrderDescription: p.OrderDescription},
		PaymentExpiryTime:  now.Add(c.cfg.PaymentExpiry).Format(ExpiryTimeLayout),
		PaymentNotifyURL:   c.cfg.PublicBaseURL + notifyPath,
		PaymentRedirectURL: c.cfg.PublicBaseURL + redirectPath,
		ExtendInfo:         extendInfo,
	}
	if p.UserID != "" {
		req.Order.Buyer = &models.OrderBuyer{ReferenceBuyerID: p.UserID}
	}
	return req, nil
}

// AgreementPayment charges a user who has signed an agreement; the agreement
// access token is the payment auth code. An empty currency uses the default.
func (c *Checkout) AgreementPayment(accessToken string, amount int64, currency, description string) (*models.PaymentRequest, error) {
	if accessToken == "" {
		return nil, errors.NewValidationError("accessToken is required")
	}
	if amount <= 0 {
		return nil, errors.NewValidationError("amount must be greater than 0")
	}
	if description == "" {
		return nil, errors.NewValidationError("orderDescription is required")
	}
	if currency == "" {
		currency = c.cfg.Currency
	}

	now := c.now()
	return &models.PaymentRequest{
		ProductCode:      models.ProductAgreementPayment,
		PaymentRequestID: utils.NewRequestID(utils.AgreementPaymentIDPrefix, now),
		PaymentAuthCode:  accessToken,
		PaymentAmount: models.Amount{
			Currency: currency,
			Value:    strconv.FormatInt(amount, 10),
		},
		Order:            models.Order{OrderDescription: description},
		PaymentNotifyURL: c.cfg.PublicBaseURL + notifyPath,
	}, nil
}

// Refund builds a refund of amount major units (IQD) against paymentID.
func (c *Checkout) Refund(paymentID string, amount float64) (*models.RefundRequest, error) {
	if paymentID == "" {
		return nil, errors.NewValidationError("paymentId is required")
	}
	minor, err := ToMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	return &models.RefundRequest{
		RefundRequestID: utils.NewRequestID(utils.RefundIDPrefix, c.now()),
		PaymentID:       paymentID,
		RefundAmount: models.Amount{
			Currency: c.cfg.Currency,
			Value:    strconv.FormatInt(minor, 10),
		},
		RefundReason: DefaultRefundReason,
	}, nil
}

// Message builds an inbox or push request; the template code is set by the
// sending operation.
func (c *Checkout) Message(accessToken, title, content, url string) (*models.MessageRequest, error) {
	if title == "" || content == "" {
		return nil, errors.NewValidationError("title and content are required")
	}
	if url == "" {
		url = c.cfg.InboxDefaultURL
	}

	return &models.MessageRequest{
		AccessToken: accessToken,
		RequestID:   utils.NewRequestID(utils.NotificationIDPrefix, c.now()),
		Templates: []models.MessageTemplate{{
			TemplateParameters: map[string]string{
				"Title":   title,
				"Content": content,
				"Url":     url,
			},
		}},
	}, nil
}

// ToMinorUnits converts a positive major-unit amount to minor units, rounding
// to the nearest unit.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return 0, errors.NewValidationError("amount must be greater than 0")
	}
	minor := math.Round(amount * MinorUnitsPerMajor)
	if minor < 1 {
		return 0, errors.NewValidationError("amount is below the smallest currency unit")
	}
	if minor > math.MaxInt64/2 {
		return 0, errors.NewValidationError("amount is too large")
	}
	return int64(minor), nil
}
