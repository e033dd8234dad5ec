package guardian_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/guardian"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLinks is an in-memory LinkStore mirroring the model's semantics closely
// enough for the service-level flows.
type fakeLinks struct {
	mu          sync.Mutex
	links       []*types.GuardianLink
	alerts      []*types.GuardianAlert
	nextID      int64
	createCalls int
	createErr   error
	alertErr    error
}

func (f *fakeLinks) HasActiveAsGuardian(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.GuardianUserID == userID && link.Status == enum.LinkStatusActive {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeLinks) HasActiveAsProtected(_ context.Context, userID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.ProtectedUserID == userID && link.Status == enum.LinkStatusActive {
			return true, nil
		}
	}

	return false, nil
}

func (f *fakeLinks) FindActiveLink(_ context.Context, protectedID, guardianID int64) (*types.GuardianLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, link := range f.links {
		if link.ProtectedUserID == protectedID && link.GuardianUserID == guardianID &&
			link.Status == enum.LinkStatusActive {
			return link, nil
		}
	}

	return nil, types.ErrLinkNotFound
}

func (f *fakeLinks) ActiveLinksForProtected(_ context.Context, userID int64) ([]*types.GuardianLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*types.GuardianLink

	for _, link := range f.links {
		if link.ProtectedUserID == userID && link.Status == enum.LinkStatusActive {
			out = append(out, link)
		}
	}

	return out, nil
}

func (f *fakeLinks) CreateLink(_ context.Context, link *types.GuardianLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++

	if f.createErr != nil {
		return f.createErr
	}

	f.nextID++
	link.ID = f.nextID
	f.links = append(f.links, link)

	return nil
}

func (f *fakeLinks) DeleteLink(_ context.Context, linkID, requesterID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, link := range f.links {
		if link.ID == linkID && (link.ProtectedUserID == requesterID || link.GuardianUserID == requesterID) {
			f.links = append(f.links[:i], f.links[i+1:]...)
			return nil
		}
	}

	return types.ErrLinkNotFound
}

func (f *fakeLinks) ListGuardians(_ context.Context, _ int64) ([]*types.LinkedGuardian, error) {
	return nil, nil
}

func (f *fakeLinks) CreateAlerts(_ context.Context, _ int64, alerts []*types.GuardianAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.alertErr != nil {
		return f.alertErr
	}

	now := time.Now()
	for _, alert := range alerts {
		f.nextID++
		alert.ID = f.nextID
		alert.Status = enum.AlertStatusPending
		alert.CreatedAt = now
		f.alerts = append(f.alerts, alert)
	}

	return nil
}

func (f *fakeLinks) PendingAlerts(_ context.Context, guardianID int64) ([]*types.PendingAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []*types.PendingAlert

	for _, alert := range f.alerts {
		if alert.GuardianUserID == guardianID && alert.Status == enum.AlertStatusPending {
			out = append(out, &types.PendingAlert{AlertID: alert.ID, CreatedAt: alert.CreatedAt})
		}
	}

	return out, nil
}

func (f *fakeLinks) MarkSeen(_ context.Context, alertID, guardianID int64) (*types.GuardianAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, alert := range f.alerts {
		if alert.ID == alertID && alert.GuardianUserID == guardianID {
			return alert, nil
		}
	}

	return nil, types.ErrAlertNotFound
}

func (f *fakeLinks) ActionAlert(
	_ context.Context, alertID, guardianID int64, action enum.AlertAction, _ *string,
) (*types.GuardianAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, alert := range f.alerts {
		if alert.ID == alertID && alert.GuardianUserID == guardianID {
			actionStr := string(action)
			alert.Action = &actionStr

			return alert, nil
		}
	}

	return nil, types.ErrAlertNotFound
}

func (f *fakeLinks) seedLink(protectedID, guardianID int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.links = append(f.links, &types.GuardianLink{
		ID:              f.nextID,
		ProtectedUserID: protectedID,
		GuardianUserID:  guardianID,
		Status:          enum.LinkStatusActive,
		CreatedAt:       time.Now(),
	})
}

// fakeUsers resolves users from a fixed map.
type fakeUsers struct {
	users map[int64]*types.User
}

func (f *fakeUsers) GetByID(_ context.Context, userID int64) (*types.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}

	return user, nil
}

// fakeNotifier records every send.
type fakeNotifier struct {
	mu      sync.Mutex
	handles []string
	texts   []string
	err     error
}

func (f *fakeNotifier) Send(_ context.Context, handle, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handles = append(f.handles, handle)
	f.texts = append(f.texts, text)

	return f.err
}

func (f *fakeNotifier) sent() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.handles...), append([]string(nil), f.texts...)
}

type serviceFixture struct {
	service  *guardian.Service
	links    *fakeLinks
	users    *fakeUsers
	notifier *fakeNotifier
	redis    *miniredis.Miniredis
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	links := &fakeLinks{}
	users := &fakeUsers{users: map[int64]*types.User{
		1: {ID: 1, DisplayName: "Amma", Email: "amma@example.com"},
		2: {ID: 2, DisplayName: "Ravi", Email: "ravi@example.com", Handle: ptr("ravi_tg")},
		3: {ID: 3, DisplayName: "Meera", Email: "meera@example.com"},
	}}
	notifier := &fakeNotifier{}

	service := guardian.NewService(links, users, client, notifier, time.Second, logger)

	return &serviceFixture{service: service, links: links, users: users, notifier: notifier, redis: mr}
}

func ptr[T any](v T) *T { return &v }

func TestGenerateOTPStoresRedeemableCode(t *testing.T) {
	t.Parallel()

	fx := setupService(t)

	grant, err := fx.service.GenerateOTP(t.Context(), fx.users.users[1])
	require.NoError(t, err)

	assert.Regexp(t, `^\d{6}$`, grant.Code)
	assert.Equal(t, 10, grant.TTLMinutes)
	assert.Contains(t, grant.Message, "10 minutes")

	key := "guardian_otp:" + grant.Code
	require.True(t, fx.redis.Exists(key))
	assert.InDelta(t, (10 * time.Minute).Seconds(), fx.redis.TTL(key).Seconds(), 1)
}

func TestGenerateOTPCodesStayDistinct(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	first, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	second, err := fx.service.GenerateOTP(ctx, fx.users.users[3])
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
	assert.True(t, fx.redis.Exists("guardian_otp:"+first.Code))
	assert.True(t, fx.redis.Exists("guardian_otp:"+second.Code))
}

func TestGenerateOTPRejectsActiveGuardian(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	fx.links.seedLink(3, 1) // user 1 already guards user 3

	_, err := fx.service.GenerateOTP(t.Context(), fx.users.users[1])
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestGenerateOTPStoreDown(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	fx.redis.Close()

	_, err := fx.service.GenerateOTP(t.Context(), fx.users.users[1])
	require.ErrorIs(t, err, types.ErrUnavailable)
}

func TestVerifyOTPCreatesActiveLink(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	// Email comparison is case-insensitive.
	link, err := fx.service.VerifyOTP(ctx, fx.users.users[2], "Amma@Example.COM", grant.Code)
	require.NoError(t, err)

	assert.Equal(t, int64(1), link.ProtectedUserID)
	assert.Equal(t, int64(2), link.GuardianUserID)
	assert.Equal(t, enum.LinkStatusActive, link.Status)
	require.NotNil(t, link.VerifiedAt)

	// The code is consumed on success.
	assert.False(t, fx.redis.Exists("guardian_otp:"+grant.Code))
}

func TestVerifyOTPSingleUse(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.NoError(t, err)

	// A second redemption, even by a different guardian, finds nothing.
	_, err = fx.service.VerifyOTP(ctx, fx.users.users[3], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrInvalidOTP)
}

func TestVerifyOTPEmailMismatchBurnsCode(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "wrong@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrInvalidOTP)

	// The mismatch consumed the code, so the correct email no longer helps.
	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrInvalidOTP)
	assert.Zero(t, fx.links.createCalls)
}

func TestVerifyOTPSelfLinkKeepsCode(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	// The protected user redeeming their own code is rejected before the
	// code is consumed.
	_, err = fx.service.VerifyOTP(ctx, fx.users.users[1], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrSelfLink)
	assert.True(t, fx.redis.Exists("guardian_otp:"+grant.Code))

	// A real guardian can still redeem it.
	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.NoError(t, err)
}

func TestVerifyOTPUnknownCode(t *testing.T) {
	t.Parallel()

	fx := setupService(t)

	_, err := fx.service.VerifyOTP(t.Context(), fx.users.users[2], "amma@example.com", "000000")
	require.ErrorIs(t, err, types.ErrInvalidOTP)
}

func TestVerifyOTPStaleRecordRejected(t *testing.T) {
	t.Parallel()

	fx := setupService(t)

	stale := `{"protected_id":1,"protected_email":"amma@example.com","expires_at":"2020-01-01T00:00:00Z"}`
	require.NoError(t, fx.redis.Set("guardian_otp:123456", stale))

	_, err := fx.service.VerifyOTP(t.Context(), fx.users.users[2], "amma@example.com", "123456")
	require.ErrorIs(t, err, types.ErrInvalidOTP)
}

func TestVerifyOTPMalformedRecordRejected(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	require.NoError(t, fx.redis.Set("guardian_otp:654321", "not-json"))

	_, err := fx.service.VerifyOTP(t.Context(), fx.users.users[2], "amma@example.com", "654321")
	require.ErrorIs(t, err, types.ErrInvalidOTP)
}

func TestVerifyOTPGuardianAlreadyProtected(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	// User 2 is already protected by user 3, so they cannot guard anyone.
	fx.links.seedLink(2, 3)

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestVerifyOTPProtectedBecameGuardian(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	// Between issue and redemption, user 1 became a guardian of user 3.
	fx.links.seedLink(3, 1)

	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrConflict)
}

func TestVerifyOTPIdempotentForActiveLink(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	fx.links.seedLink(1, 2)

	// The protected side may add more guardians, so issuing still works.
	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	// Re-verifying the existing pair succeeds without a second insert.
	link, err := fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), link.ProtectedUserID)
	assert.Zero(t, fx.links.createCalls)
}

func TestVerifyOTPStoreDown(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	ctx := t.Context()

	grant, err := fx.service.GenerateOTP(ctx, fx.users.users[1])
	require.NoError(t, err)

	fx.redis.Close()

	_, err = fx.service.VerifyOTP(ctx, fx.users.users[2], "amma@example.com", grant.Code)
	require.ErrorIs(t, err, types.ErrUnavailable)
}

func TestActionRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	fx := setupService(t)

	_, err := fx.service.Action(t.Context(), 1, 2, "shouted", nil)
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestRevokeLinkByEitherSide(t *testing.T) {
	t.Parallel()

	fx := setupService(t)
	fx.links.seedLink(1, 2)
	ctx := t.Context()

	require.NoError(t, fx.service.RevokeLink(ctx, 1, 2))
	require.ErrorIs(t, fx.service.RevokeLink(ctx, 1, 2), types.ErrNotFound)
}
