package payment

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StubProvider is a no-op gateway for development; deposits stay PENDING until an admin settles them.
type StubProvider struct{}

func (s *StubProvider) Name() string { return "STUB" }

func (s *StubProvider) InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositResponse, error) {
	return &DepositResponse{
		ProviderRef: fmt.Sprintf("stub_%d_%s", time.Now().UnixNano(), req.Reference),
		Status:      "pending",
		ExpiresAt:   time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, nil
}

// IsStubRef reports whether ref was issued by StubProvider.
func IsStubRef(ref string) bool {
	return strings.HasPrefix(ref, "stub_")
}
