package services

import (
	"context"

	"github.com/dmitrijs2005/gophvault/internal/server/breach"
	"github.com/dmitrijs2005/gophvault/internal/server/strength"
)

// PasswordService answers stateless password questions. It needs neither a
// session nor a key.
type PasswordService struct {
	breach breach.Checker
}

func NewPasswordService(c breach.Checker) *PasswordService {
	return &PasswordService{breach: c}
}

func (s *PasswordService) Strength(password string) strength.Result {
	return strength.Analyze(password)
}

// CheckBreach looks the password up in the breach corpus. Lookup failures
// are reported as not breached.
func (s *PasswordService) CheckBreach(ctx context.Context, password string) (breach.Result, error) {
	return s.breach.Check(ctx, password)
}
