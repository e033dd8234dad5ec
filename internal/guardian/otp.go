package guardian

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

const (
	// OTPTTL is how long an issued code stays redeemable.
	OTPTTL = 10 * time.Minute
	// otpKeyPrefix namespaces codes inside the OTP redis database.
	otpKeyPrefix = "guardian_otp:"
	// otpAttempts caps regeneration when a fresh code collides with a live one.
	otpAttempts = 3
)

// codeSpace bounds the uniform 6-digit code draw.
var codeSpace = big.NewInt(1_000_000)

// OTPGrant is handed back to the protected user after a code is issued.
type OTPGrant struct {
	Code       string `json:"code"`
	TTLMinutes int    `json:"ttl_minutes"`
	Message    string `json:"message"`
}

// otpRecord is the redis value behind guardian_otp:<code>. It never touches
// Postgres.
type otpRecord struct {
	ProtectedID    int64     `json:"protected_id"`
	ProtectedEmail string    `json:"protected_email"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// GenerateOTP issues a single-use linking code for the protected user. Users
// who already guard someone cannot request protection, which keeps the link
// graph bipartite. A redis outage surfaces as unavailable rather than as a
// silently unredeemable code.
func (s *Service) GenerateOTP(ctx context.Context, protected *types.User) (*OTPGrant, error) {
	guards, err := s.links.HasActiveAsGuardian(ctx, protected.ID)
	if err != nil {
		return nil, err
	}

	if guards {
		return nil, fmt.Errorf("%w: guardians cannot request protection", types.ErrLinkChain)
	}

	record := otpRecord{
		ProtectedID:    protected.ID,
		ProtectedEmail: normalizeEmail(protected.Email),
		ExpiresAt:      time.Now().Add(OTPTTL),
	}

	data, err := sonic.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode otp record: %w", err)
	}

	for range otpAttempts {
		code, err := randomCode()
		if err != nil {
			return nil, fmt.Errorf("failed to draw otp code: %w", err)
		}

		err = s.otp.Do(ctx, s.otp.B().Set().
			Key(otpKeyPrefix+code).
			Value(string(data)).
			Nx().
			Ex(OTPTTL).
			Build()).Error()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				// NX refused the write: the code is already live for someone
				// else. Draw again.
				continue
			}

			s.logger.Error("OTP store rejected write", zap.Error(err))

			return nil, fmt.Errorf("otp store down: %w", types.ErrUnavailable)
		}

		ttlMinutes := int(OTPTTL.Minutes())

		s.logger.Info("Issued guardian linking code",
			zap.Int64("protectedID", protected.ID))

		return &OTPGrant{
			Code:       code,
			TTLMinutes: ttlMinutes,
			Message:    fmt.Sprintf("Share this code with your guardian. It expires in %d minutes.", ttlMinutes),
		}, nil
	}

	return nil, fmt.Errorf("could not issue a unique code: %w", types.ErrUnavailable)
}

// VerifyOTP redeems a linking code on behalf of a guardian. The code is
// consumed atomically before any validation that could fail, so a mismatched
// email still burns it. An already-active link verifies idempotently.
func (s *Service) VerifyOTP(ctx context.Context, guardian *types.User, claimedEmail, code string) (*types.GuardianLink, error) {
	claimedEmail = normalizeEmail(claimedEmail)
	if claimedEmail == normalizeEmail(guardian.Email) {
		return nil, fmt.Errorf("%w: guardian and protected user match", types.ErrSelfLink)
	}

	data, err := s.otp.Do(ctx, s.otp.B().Getdel().Key(otpKeyPrefix+code).Build()).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, fmt.Errorf("code not found: %w", types.ErrInvalidOTP)
		}

		s.logger.Error("OTP store rejected consume", zap.Error(err))

		return nil, fmt.Errorf("otp store down: %w", types.ErrUnavailable)
	}

	var record otpRecord
	if err := sonic.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("malformed otp record: %w", types.ErrInvalidOTP)
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, fmt.Errorf("code expired: %w", types.ErrInvalidOTP)
	}

	if record.ProtectedEmail != claimedEmail {
		return nil, fmt.Errorf("claimed email does not match: %w", types.ErrInvalidOTP)
	}

	if record.ProtectedID == guardian.ID {
		return nil, fmt.Errorf("%w: guardian and protected user match", types.ErrSelfLink)
	}

	// Bipartite graph: a protected user cannot turn around and guard, and a
	// guardian cannot be guarded.
	isProtected, err := s.links.HasActiveAsProtected(ctx, guardian.ID)
	if err != nil {
		return nil, err
	}

	if isProtected {
		return nil, fmt.Errorf("%w: protected users cannot become guardians", types.ErrLinkChain)
	}

	guards, err := s.links.HasActiveAsGuardian(ctx, record.ProtectedID)
	if err != nil {
		return nil, err
	}

	if guards {
		return nil, fmt.Errorf("%w: guardians cannot be protected", types.ErrLinkChain)
	}

	if existing, err := s.links.FindActiveLink(ctx, record.ProtectedID, guardian.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, types.ErrLinkNotFound) {
		return nil, err
	}

	now := time.Now()
	link := &types.GuardianLink{
		ProtectedUserID: record.ProtectedID,
		GuardianUserID:  guardian.ID,
		Status:          enum.LinkStatusActive,
		VerifiedAt:      &now,
		CreatedAt:       now,
	}

	if err := s.links.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	s.logger.Info("Guardian link verified",
		zap.Int64("protectedID", record.ProtectedID),
		zap.Int64("guardianID", guardian.ID))

	return link, nil
}

// randomCode draws a uniform 6-digit code from crypto/rand.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// normalizeEmail canonicalizes an email for comparison.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
