package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/farmgatehq/farmgate-backend/internal/profiles"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/auth/session"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/db"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
	"github.com/farmgatehq/farmgate-backend/pkg/security"
)

const minPasswordLength = 10

// TokenPair is what a successful signup, login, or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// Service exposes the credential flow: signup, login, refresh, logout.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*models.Profile, *TokenPair, error)
	Login(ctx context.Context, input LoginInput) (*models.Profile, *TokenPair, error)
	Refresh(ctx context.Context, profileID uuid.UUID, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, caller auth.Principal) error
}

// SignupInput holds the validated registration payload.
type SignupInput struct {
	Role         enums.ProfileRole
	FullName     string
	CompanyName  *string
	ContactEmail string
	Password     string
	PhoneNumber  *string
	Address      *string
	LocationCode string
}

// LoginInput carries credentials plus the client address for rate limiting.
type LoginInput struct {
	Email    string
	Password string
	ClientIP string
}

type profileDirectory interface {
	Create(ctx context.Context, input profiles.CreateProfileInput) (*models.Profile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

type profileFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
}

type sessionManager interface {
	Generate(ctx context.Context, profileID string) (string, error)
	Rotate(ctx context.Context, profileID, provided string) (string, error)
	Revoke(ctx context.Context, profileID string) error
}

type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type service struct {
	directory profileDirectory
	finder    profileFinder
	sessions  sessionManager
	limiter   rateLimiter
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	rlCfg     config.AuthRateLimitConfig
	logg      *logger.Logger
	now       func() time.Time
}

// NewService constructs the credential service. The rate limiter is optional;
// without it login attempts are not throttled.
func NewService(
	directory profileDirectory,
	finder profileFinder,
	sessions sessionManager,
	limiter rateLimiter,
	jwtCfg config.JWTConfig,
	pwCfg config.PasswordConfig,
	rlCfg config.AuthRateLimitConfig,
	logg *logger.Logger,
) (Service, error) {
	if directory == nil {
		return nil, fmt.Errorf("profile service required")
	}
	if finder == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		directory: directory,
		finder:    finder,
		sessions:  sessions,
		limiter:   limiter,
		jwtCfg:    jwtCfg,
		pwCfg:     pwCfg,
		rlCfg:     rlCfg,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*models.Profile, *TokenPair, error) {
	if len(input.Password) < minPasswordLength {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "password too short").
			WithDetails(map[string]any{"min_length": minPasswordLength})
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	profile, err := s.directory.Create(ctx, profiles.CreateProfileInput{
		Role:         input.Role,
		FullName:     input.FullName,
		CompanyName:  input.CompanyName,
		ContactEmail: input.ContactEmail,
		PasswordHash: hash,
		PhoneNumber:  input.PhoneNumber,
		Address:      input.Address,
		LocationCode: input.LocationCode,
	})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issueTokens(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"profile_id": profile.ID, "role": profile.Role})
	s.logg.Info(ctx, "profile signed up")
	return profile, pair, nil
}

func (s *service) Login(ctx context.Context, input LoginInput) (*models.Profile, *TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	if err := s.allowLogin(ctx, email, input.ClientIP); err != nil {
		return nil, nil, err
	}

	profile, err := s.finder.FindByEmail(ctx, email)
	if err != nil {
		wrapped := db.Wrap(err, "load profile by email")
		if pkgerrors.CodeOf(wrapped) == pkgerrors.CodeNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid credentials")
		}
		return nil, nil, wrapped
	}

	ok, err := security.VerifyPassword(input.Password, profile.PasswordHash)
	if err != nil || !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid credentials")
	}

	pair, err := s.issueTokens(ctx, profile)
	if err != nil {
		return nil, nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"profile_id": profile.ID})
	s.logg.Info(ctx, "profile logged in")
	return profile, pair, nil
}

// Refresh rotates the refresh token and mints a fresh access token. A stale
// or mismatched token yields UNAUTHENTICATED without detail.
func (s *service) Refresh(ctx context.Context, profileID uuid.UUID, refreshToken string) (*TokenPair, error) {
	if profileID == uuid.Nil || strings.TrimSpace(refreshToken) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid refresh token")
	}

	rotated, err := s.sessions.Rotate(ctx, profileID.String(), refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate refresh token")
	}

	profile, err := s.directory.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}

	access, err := s.mintAccess(profile)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: rotated,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
	}, nil
}

func (s *service) Logout(ctx context.Context, caller auth.Principal) error {
	if err := s.sessions.Revoke(ctx, caller.ProfileID.String()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	ctx = s.logg.WithField(ctx, "profile_id", caller.ProfileID)
	s.logg.Info(ctx, "profile logged out")
	return nil
}

func (s *service) allowLogin(ctx context.Context, email, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, _, err := s.limiter.FixedWindowAllow(ctx, "login:email:"+email,
		int64(s.rlCfg.LoginEmailLimit), s.rlCfg.LoginWindow)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
	}
	if clientIP != "" {
		allowed, _, err = s.limiter.FixedWindowAllow(ctx, "login:ip:"+clientIP,
			int64(s.rlCfg.LoginIPLimit), s.rlCfg.LoginWindow)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limit check")
		}
		if !allowed {
			return pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts")
		}
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, profile *models.Profile) (*TokenPair, error) {
	access, err := s.mintAccess(profile)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sessions.Generate(ctx, profile.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "generate refresh token")
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    s.jwtCfg.ExpirationMinutes * 60,
	}, nil
}

func (s *service) mintAccess(profile *models.Profile) (string, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		ProfileID: profile.ID,
		Role:      profile.Role,
		Verified:  profile.IsVerified,
		JTI:       uuid.NewString(),
	})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return token, nil
}
