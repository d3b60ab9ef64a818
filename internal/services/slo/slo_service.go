package slo

import (
	"fmt"
	"time"
)

// RefundRoute includes inline reconciliation, so its objective covers the
// polling window.
const RefundRoute = "/api/payment/refund"

var latencySLOs = map[string]time.Duration{
	"/api/auth/apply-token":      3 * time.Second,
	"/api/user/info":             1500 * time.Millisecond,
	"/api/user/cards":            1500 * time.Millisecond,
	"/api/merchant/info":         1500 * time.Millisecond,
	"/api/payment/create":        2 * time.Second,
	"/api/payment/inquiry":       1500 * time.Millisecond,
	RefundRoute:                  90 * time.Second,
	"/api/agreement/prepare":     2 * time.Second,
	"/api/agreement/apply-token": 2 * time.Second,
	"/api/agreement/pay":         2 * time.Second,
}

type Service struct {
	objectives map[string]time.Duration
}

func NewService() *Service {
	return NewServiceWith(DefaultObjectives())
}

// DefaultObjectives returns a copy of the built-in per-route objectives.
func DefaultObjectives() map[string]time.Duration {
	objectives := make(map[string]time.Duration, len(latencySLOs))
	for route, d := range latencySLOs {
		objectives[route] = d
	}
	return objectives
}

// NewServiceWith uses the given objectives instead of the defaults.
func NewServiceWith(objectives map[string]time.Duration) *Service {
	return &Service{objectives: objectives}
}

func (s *Service) GetLatencySLO(endpoint string) time.Duration {
	if slo, exists := s.objectives[endpoint]; exists {
		return slo
	}
	return 0
}

// CheckLatencySLO passes endpoints without an objective.
func (s *Service) CheckLatencySLO(endpoint string, latency time.Duration) (pass bool, reason string) {
	slo := s.GetLatencySLO(endpoint)
	if slo == 0 {
		return true, ""
	}

	if latency > slo {
		return false, fmt.Sprintf("latency %v exceeds SLO %v", latency, slo)
	}

	return true, ""
}
