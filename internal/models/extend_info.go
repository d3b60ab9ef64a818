package models

import "encoding/json"

// ExtendInfo is merchant tracking data round-tripped through the gateway as a
// JSON string.
type ExtendInfo struct {
	PaymentRequestID string                 `json:"paymentRequestId,omitempty"`
	UserID           string                 `json:"userId,omitempty"`
	OrderID          string                 `json:"orderId,omitempty"`
	ProductID        string                 `json:"productId,omitempty"`
	Quantity         int                    `json:"quantity,omitempty"`
	Timestamp        int64                  `json:"timestamp,omitempty"`
	CustomData       map[string]interface{} `json:"customData,omitempty"`
}

func BuildExtendInfo(data ExtendInfo) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseExtendInfo returns the zero value for an empty string.
func ParseExtendInfo(extendInfo string) (ExtendInfo, error) {
	var data ExtendInfo
	if extendInfo == "" {
		return data, nil
	}
	err := json.Unmarshal([]byte(extendInfo), &data)
	return data, err
}
