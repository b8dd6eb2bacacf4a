// Package service authenticates moderators and issues access tokens.
package service

import (
	"context"
	"log/slog"

	"blkout/internal/auth/secrets"
	"blkout/internal/jwttoken"
	dErrors "blkout/pkg/domain-errors"
	"blkout/pkg/requestcontext"
)

// Service verifies moderator credentials against the configured bcrypt hash
// and issues JWTs. The deployment runs with one shared moderator credential;
// the moderator name identifies who acted in the audit trail.
type Service struct {
	passwordHash string
	tokens       *jwttoken.Service
	logger       *slog.Logger
}

func New(passwordHash string, tokens *jwttoken.Service, logger *slog.Logger) *Service {
	return &Service{passwordHash: passwordHash, tokens: tokens, logger: logger}
}

// Login verifies the password and returns a signed access token.
func (s *Service) Login(ctx context.Context, moderator, password string) (string, error) {
	if moderator == "" || password == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "moderator and password are required")
	}
	if s.passwordHash == "" {
		s.logger.ErrorContext(ctx, "login attempted without configured credentials")
		return "", dErrors.New(dErrors.CodeUnauthorized, "moderator login is not configured")
	}

	if err := secrets.Verify(password, s.passwordHash); err != nil {
		s.logger.WarnContext(ctx, "login failed",
			"request_id", requestcontext.RequestID(ctx),
			"moderator", moderator,
			"client_ip", requestcontext.ClientIP(ctx),
		)
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Generate(moderator, requestcontext.Now(ctx))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "issue access token")
	}

	s.logger.InfoContext(ctx, "moderator logged in",
		"request_id", requestcontext.RequestID(ctx),
		"moderator", moderator,
	)
	return token, nil
}
