package service

import (
	"context"
	"sync"

	"formation/internal/apiclient"
	"formation/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AuthService proxies authentication to the upstream API.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.AuthTokens, error)
	Register(ctx context.Context, req apiclient.RegisterRequest) (*model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error)
	Me(ctx context.Context) (*model.User, error)
	// VerifyEmail verifies token at most once per process: concurrent calls
	// share one upstream request and later calls get the remembered outcome.
	VerifyEmail(ctx context.Context, token string) (*apiclient.VerifyEmailResult, error)
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
}

const maxVerifiedTokens = 1024

type authService struct {
	client *apiclient.Client
	logger zerolog.Logger

	verifyGroup singleflight.Group
	mu          sync.Mutex
	verified    map[string]*apiclient.VerifyEmailResult
	order       []string
}

func NewAuthService(client *apiclient.Client, logger zerolog.Logger) AuthService {
	return &authService{
		client:   client,
		logger:   logger.With().Str("service", "AuthService").Logger(),
		verified: make(map[string]*apiclient.VerifyEmailResult),
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.AuthTokens, error) {
	tokens, err := s.client.Login(ctx, email, password)
	if err != nil {
		s.logger.Debug().Err(err).Str("email", email).Msg("Login failed")
		return nil, err
	}
	return tokens, nil
}

func (s *authService) Register(ctx context.Context, req apiclient.RegisterRequest) (*model.User, error) {
	user, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", user.ID).Msg("User registered")
	return user, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*model.AuthTokens, error) {
	return s.client.Refresh(ctx, refreshToken)
}

func (s *authService) Me(ctx context.Context) (*model.User, error) {
	return s.client.Me(ctx)
}

func (s *authService) VerifyEmail(ctx context.Context, token string) (*apiclient.VerifyEmailResult, error) {
	if res := s.rememberedVerification(token); res != nil {
		return res, nil
	}

	ch := s.verifyGroup.DoChan(token, func() (interface{}, error) {
		if res := s.rememberedVerification(token); res != nil {
			return res, nil
		}
		res, err := s.client.VerifyEmail(context.WithoutCancel(ctx), token)
		if err != nil {
			return nil, err
		}
		s.rememberVerification(token, res)
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			s.logger.Warn().Err(r.Err).Msg("Email verification failed")
			return nil, r.Err
		}
		return r.Val.(*apiclient.VerifyEmailResult), nil
	}
}

func (s *authService) rememberedVerification(token string) *apiclient.VerifyEmailResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verified[token]
}

func (s *authService) rememberVerification(token string, res *apiclient.VerifyEmailResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.verified[token]; ok {
		return
	}
	if len(s.order) >= maxVerifiedTokens {
		delete(s.verified, s.order[0])
		s.order = s.order[1:]
	}
	s.verified[token] = res
	s.order = append(s.order, token)
}

func (s *authService) ResendVerification(ctx context.Context, email string) error {
	return s.client.ResendVerification(ctx, email)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	return s.client.RequestPasswordReset(ctx, email)
}
