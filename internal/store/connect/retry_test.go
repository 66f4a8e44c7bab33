package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/snoozzd/internal/logger"
)

func policy() Policy {
	return Policy{
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWaitSucceedsAfterRetries(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := Wait(context.Background(), "redis", "localhost:6379", ping, policy(), logger.Nop()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestWaitTimesOut(t *testing.T) {
	down := errors.New("connection refused")
	p := policy()
	p.ConnectTimeout = 40 * time.Millisecond

	err := Wait(context.Background(), "postgres", "db:5432", func(context.Context) error { return down }, p, logger.Nop())
	if !errors.Is(err, down) {
		t.Errorf("Expected the last ping error to be wrapped, got %v", err)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Policy)
	}{
		{"connect timeout", func(p *Policy) { p.ConnectTimeout = 0 }},
		{"retry interval", func(p *Policy) { p.RetryInterval = 0 }},
		{"max wait", func(p *Policy) { p.MaxWait = -time.Second }},
		{"ping timeout", func(p *Policy) { p.PingTimeout = 0 }},
		{"warn threshold", func(p *Policy) { p.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := policy()
			tt.modify(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	if err := policy().Validate(); err != nil {
		t.Errorf("Valid policy rejected: %v", err)
	}
}
