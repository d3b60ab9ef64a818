package main

import (
	"testing"
	"time"

	"wallet-gateway/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestRefundBudget(t *testing.T) {
	tests := []struct {
		name        string
		attempts    int
		interval    time.Duration
		httpTimeout time.Duration
		expected    time.Duration
	}{
		{"defaults", 12, 5 * time.Second, 25 * time.Second, 380 * time.Second},
		{"single attempt", 1, 5 * time.Second, 10 * time.Second, 20 * time.Second},
		{"short polling", 3, time.Second, 2 * time.Second, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Gateway:   config.GatewayConfig{HTTPTimeout: tt.httpTimeout},
				Reconcile: config.ReconcileConfig{MaxAttempts: tt.attempts, Interval: tt.interval},
			}
			assert.Equal(t, tt.expected, refundBudget(cfg))
		})
	}
}

func TestWriteTimeout(t *testing.T) {
	cfg := &config.Config{
		Server:    config.ServerConfig{WriteTimeout: 10 * time.Second},
		Gateway:   config.GatewayConfig{HTTPTimeout: 25 * time.Second},
		Reconcile: config.ReconcileConfig{MaxAttempts: 12, Interval: 5 * time.Second},
	}
	assert.Equal(t, 380*time.Second, writeTimeout(cfg))

	cfg.Server.WriteTimeout = 10 * time.Minute
	assert.Equal(t, 10*time.Minute, writeTimeout(cfg))
}
