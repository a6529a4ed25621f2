package authn

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/farmgatehq/farmgate-backend/internal/profiles"
	"github.com/farmgatehq/farmgate-backend/pkg/auth"
	"github.com/farmgatehq/farmgate-backend/pkg/auth/session"
	"github.com/farmgatehq/farmgate-backend/pkg/config"
	"github.com/farmgatehq/farmgate-backend/pkg/db/models"
	"github.com/farmgatehq/farmgate-backend/pkg/enums"
	pkgerrors "github.com/farmgatehq/farmgate-backend/pkg/errors"
	"github.com/farmgatehq/farmgate-backend/pkg/logger"
)

type stubDirectory struct {
	rows        map[uuid.UUID]*models.Profile
	createCalls int
}

func (s *stubDirectory) Create(ctx context.Context, input profiles.CreateProfileInput) (*models.Profile, error) {
	s.createCalls++
	for _, row := range s.rows {
		if row.ContactEmail == input.ContactEmail {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "contact email already registered")
		}
	}
	profile := &models.Profile{
		ID:           uuid.New(),
		Role:         input.Role,
		FullName:     input.FullName,
		ContactEmail: input.ContactEmail,
		PasswordHash: input.PasswordHash,
		LocationCode: input.LocationCode,
	}
	if s.rows == nil {
		s.rows = map[uuid.UUID]*models.Profile{}
	}
	s.rows[profile.ID] = profile
	return profile, nil
}

func (s *stubDirectory) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	return row, nil
}

func (s *stubDirectory) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, row := range s.rows {
		if row.ContactEmail == email {
			return row, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessions struct {
	tokens map[string]string
	seq    int
}

func (s *stubSessions) Generate(ctx context.Context, profileID string) (string, error) {
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
	s.seq++
	token := uuid.NewString()
	s.tokens[profileID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, profileID, provided string) (string, error) {
	stored, ok := s.tokens[profileID]
	if !ok || stored != provided {
		return "", session.ErrInvalidRefreshToken
	}
	return s.Generate(ctx, profileID)
}

func (s *stubSessions) Revoke(ctx context.Context, profileID string) error {
	delete(s.tokens, profileID)
	return nil
}

type stubLimiter struct {
	counts map[string]int64
}

func (s *stubLimiter) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func testConfig() (config.JWTConfig, config.PasswordConfig, config.AuthRateLimitConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "farmgate-test",
		ExpirationMinutes: 15,
	}
	pwCfg := config.PasswordConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
	rlCfg := config.AuthRateLimitConfig{
		LoginWindow:     time.Minute,
		LoginEmailLimit: 3,
		LoginIPLimit:    10,
	}
	return jwtCfg, pwCfg, rlCfg
}

func testService(t *testing.T, limiter rateLimiter) (Service, *stubDirectory, *stubSessions) {
	t.Helper()
	directory := &stubDirectory{rows: map[uuid.UUID]*models.Profile{}}
	sessions := &stubSessions{}
	jwtCfg, pwCfg, rlCfg := testConfig()
	svc, err := NewService(directory, directory, sessions, limiter, jwtCfg, pwCfg, rlCfg,
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, directory, sessions
}

func signup(t *testing.T, svc Service) *models.Profile {
	t.Helper()
	profile, pair, err := svc.Signup(context.Background(), SignupInput{
		Role:         enums.ProfileRoleFarmer,
		FullName:     "Amina Njeri",
		ContactEmail: "amina@eastfield.example",
		Password:     "orchard-gate-2026",
		LocationCode: "KE-NBO-014",
	})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens on signup")
	}
	return profile
}

func TestSignupShortPasswordShortCircuits(t *testing.T) {
	svc, directory, _ := testService(t, nil)

	_, _, err := svc.Signup(context.Background(), SignupInput{
		Role:         enums.ProfileRoleFarmer,
		FullName:     "Amina Njeri",
		ContactEmail: "amina@eastfield.example",
		Password:     "short",
		LocationCode: "KE-NBO-014",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if directory.createCalls != 0 {
		t.Fatalf("no profile must be created, got %d calls", directory.createCalls)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _, _ := testService(t, nil)
	created := signup(t, svc)

	profile, pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "Amina@Eastfield.example",
		Password: "orchard-gate-2026",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if profile.ID != created.ID {
		t.Fatal("login must resolve the signed-up profile")
	}

	claims, err := auth.ParseAccessToken(config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "farmgate-test",
		ExpirationMinutes: 15,
	}, pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ProfileID != created.ID || claims.Role != enums.ProfileRoleFarmer {
		t.Fatal("claims must carry profile id and role")
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _, _ := testService(t, nil)
	signup(t, svc)

	_, _, wrongPw := svc.Login(context.Background(), LoginInput{
		Email:    "amina@eastfield.example",
		Password: "not-the-password",
	})
	_, _, unknown := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@eastfield.example",
		Password: "orchard-gate-2026",
	})
	if pkgerrors.CodeOf(wrongPw) != pkgerrors.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", wrongPw)
	}
	if pkgerrors.CodeOf(unknown) != pkgerrors.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated, got %v", unknown)
	}
	if pkgerrors.As(wrongPw).Error() != pkgerrors.As(unknown).Error() {
		t.Fatal("failure modes must be indistinguishable")
	}
}

func TestLoginRateLimited(t *testing.T) {
	limiter := &stubLimiter{}
	svc, _, _ := testService(t, limiter)
	signup(t, svc)

	for i := 0; i < 3; i++ {
		_, _, err := svc.Login(context.Background(), LoginInput{
			Email:    "amina@eastfield.example",
			Password: "not-the-password",
			ClientIP: "203.0.113.9",
		})
		if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthenticated {
			t.Fatalf("attempt %d: expected unauthenticated, got %v", i, err)
		}
	}

	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "amina@eastfield.example",
		Password: "orchard-gate-2026",
		ClientIP: "203.0.113.9",
	})
	if pkgerrors.CodeOf(err) != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit, got %v", err)
	}
}

func TestRefreshRotatesAndRejectsReuse(t *testing.T) {
	svc, _, _ := testService(t, nil)
	created := signup(t, svc)

	_, pair, err := svc.Login(context.Background(), LoginInput{
		Email:    "amina@eastfield.example",
		Password: "orchard-gate-2026",
	})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), created.ID, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// the old token is dead after rotation
	_, err = svc.Refresh(context.Background(), created.ID, pair.RefreshToken)
	if pkgerrors.CodeOf(err) != pkgerrors.CodeUnauthenticated {
		t.Fatalf("expected unauthenticated on reuse, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, _, sessions := testService(t, nil)
	created := signup(t, svc)

	if err := svc.Logout(context.Background(), auth.Principal{ProfileID: created.ID}); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := sessions.tokens[created.ID.String()]; ok {
		t.Fatal("session must be revoked")
	}
}
