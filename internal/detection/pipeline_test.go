package detection_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	kycMessage   = "Dear customer, complete your KYC immediately or your account will be suspended"
	cleanMessage = "Hey, are we still meeting for lunch tomorrow?"
)

type fakeSenders struct {
	trusted    map[string]bool
	blocked    map[string]bool
	blockCalls []string
	lookupErr  error
}

func (f *fakeSenders) IsTrusted(_ context.Context, _ int64, sender string) (bool, error) {
	if f.lookupErr != nil {
		return false, f.lookupErr
	}

	return f.trusted[sender], nil
}

func (f *fakeSenders) IsBlocked(_ context.Context, _ int64, sender string) (bool, error) {
	if f.lookupErr != nil {
		return false, f.lookupErr
	}

	return f.blocked[sender], nil
}

func (f *fakeSenders) Block(_ context.Context, _ int64, sender, _ string) error {
	f.blockCalls = append(f.blockCalls, sender)
	f.blocked[sender] = true

	return nil
}

type fakeScans struct {
	created []*types.Scan
	err     error
}

func (f *fakeScans) Create(_ context.Context, scan *types.Scan) error {
	if f.err != nil {
		return f.err
	}

	scan.ID = int64(len(f.created) + 1)
	f.created = append(f.created, scan)

	return nil
}

type fakeUsers struct {
	user     *types.User
	settings *types.UserSettings
	err      error
}

func (f *fakeUsers) GetByID(_ context.Context, _ int64) (*types.User, error) {
	if f.err != nil {
		return nil, f.err
	}

	return f.user, nil
}

func (f *fakeUsers) GetSettings(_ context.Context, userID int64) (*types.UserSettings, error) {
	if f.err != nil {
		return nil, f.err
	}

	if f.settings == nil {
		return types.DefaultUserSettings(userID), nil
	}

	return f.settings, nil
}

type fakeReputation struct {
	hits     map[string]*reputation.Hit
	calls    []string
	extracts []*reputation.TrainingData
	checkErr error
}

func (f *fakeReputation) Check(_ context.Context, value string, artifactType enum.BlacklistType) (*reputation.Hit, error) {
	f.calls = append(f.calls, string(artifactType)+":"+value)

	if f.checkErr != nil {
		return nil, f.checkErr
	}

	if hit, ok := f.hits[value]; ok {
		return hit, nil
	}

	return &reputation.Hit{}, nil
}

func (f *fakeReputation) AutoExtract(_ context.Context, _ string, training *reputation.TrainingData) int {
	f.extracts = append(f.extracts, training)

	return 1
}

type fakeRemote struct {
	verdict *ai.ModelVerdict
	err     error
	calls   int
	hints   []string
}

func (f *fakeRemote) Analyze(_ context.Context, _, _ string, hints []string) (*ai.ModelVerdict, error) {
	f.calls++
	f.hints = hints

	if f.err != nil {
		return nil, f.err
	}

	verdict := *f.verdict

	return &verdict, nil
}

type fakeLocal struct {
	verdict *ai.ModelVerdict
	err     error
	calls   int
}

func (f *fakeLocal) Classify(_ context.Context, _, _ string) (*ai.ModelVerdict, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	verdict := *f.verdict

	return &verdict, nil
}

type fakeVision struct {
	verdict *ai.ModelVerdict
	err     error
	calls   int
}

func (f *fakeVision) Analyze(_ context.Context, _ []byte, _, _ string) (*ai.ModelVerdict, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	verdict := *f.verdict

	return &verdict, nil
}

type fakeAlerter struct {
	scans []*types.Scan
	count int
	err   error
}

func (f *fakeAlerter) AlertGuardians(_ context.Context, scan *types.Scan, _ *types.User, _ *types.UserSettings) (int, error) {
	f.scans = append(f.scans, scan)

	if f.err != nil {
		return 0, f.err
	}

	return f.count, nil
}

// fixture holds the pipeline fakes with safe defaults: a known user, empty
// sender lists, an empty blacklist, and a remote model that answers LOW.
type fixture struct {
	senders *fakeSenders
	scans   *fakeScans
	users   *fakeUsers
	rep     *fakeReputation
	remote  *fakeRemote
	local   *fakeLocal
	vision  *fakeVision
	alerter *fakeAlerter
}

func newFixture() *fixture {
	return &fixture{
		senders: &fakeSenders{trusted: map[string]bool{}, blocked: map[string]bool{}},
		scans:   &fakeScans{},
		users: &fakeUsers{
			user: &types.User{ID: 1, DisplayName: "Amma", Email: "amma@example.com"},
		},
		rep: &fakeReputation{hits: map[string]*reputation.Hit{}},
		remote: &fakeRemote{
			verdict: &ai.ModelVerdict{
				Level:      enum.RiskLevelLow,
				Reason:     "Ordinary message",
				Confidence: 0.9,
				Language:   "en",
			},
		},
		alerter: &fakeAlerter{},
	}
}

func (f *fixture) pipeline(t *testing.T) *detection.Pipeline {
	t.Helper()

	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	params := detection.PipelineParams{
		Matcher:    patterns.NewMatcher(),
		Senders:    f.senders,
		Scans:      f.scans,
		Users:      f.users,
		Reputation: f.rep,
		Remote:     f.remote,
		Alerter:    f.alerter,
		Config: &config.Detection{
			MaxContentBytes:         8192,
			AutoBlacklistMinConf:    0.70,
			ReputationTimeoutMillis: 2000,
		},
		Logger: logger,
	}
	if f.local != nil {
		params.Local = f.local
	}
	if f.vision != nil {
		params.Vision = f.vision
	}

	return detection.NewPipeline(params)
}

func (f *fixture) analyze(t *testing.T, req *detection.Request) *detection.Verdict {
	t.Helper()

	verdict, err := f.pipeline(t).Analyze(t.Context(), req)
	require.NoError(t, err)

	return verdict
}

func textRequest(content, sender string) *detection.Request {
	return &detection.Request{
		Content:     content,
		Sender:      sender,
		ContentType: detection.ContentTypeText,
		UserID:      1,
		Platform:    enum.PlatformSMS,
	}
}

func imageRequest(sender string) *detection.ImageRequest {
	return &detection.ImageRequest{
		Data:     []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10},
		MimeType: "image/jpeg",
		Sender:   sender,
		UserID:   1,
		Platform: enum.PlatformIM,
	}
}

func TestAnalyzeValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  *detection.Request
	}{
		{name: "blank content", req: textRequest("   ", "")},
		{name: "oversize content", req: textRequest(strings.Repeat("a", 8193), "")},
		{name: "invalid utf8", req: textRequest("hello\xff\xfe", "")},
		{
			name: "missing user",
			req:  &detection.Request{Content: "hello", Platform: enum.PlatformSMS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			_, err := f.pipeline(t).Analyze(t.Context(), tt.req)
			require.ErrorIs(t, err, types.ErrValidation)
			assert.Empty(t, f.scans.created)
		})
	}
}

func TestAnalyzeBlockedSenderOverride(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.senders.blocked["+919999999999"] = true

	verdict := f.analyze(t, textRequest(cleanMessage, "+919999999999"))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, "Blocked sender", verdict.Reason)
	assert.InDelta(t, 1.0, verdict.Confidence, 0.0001)
	assert.Equal(t, detection.StageOverride, verdict.Stage)
	assert.Zero(t, f.remote.calls)

	require.Len(t, f.scans.created, 1)
	scan := f.scans.created[0]
	assert.True(t, scan.Blocked)
	require.NotNil(t, scan.Message)
	assert.Equal(t, cleanMessage, *scan.Message)
}

func TestAnalyzeTrustedSenderOverride(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.senders.trusted["MOM"] = true

	verdict := f.analyze(t, textRequest(cleanMessage, "MOM"))

	assert.Equal(t, enum.RiskLevelLow, verdict.Level)
	assert.Equal(t, "Trusted sender", verdict.Reason)
	assert.InDelta(t, 0.1, verdict.Confidence, 0.0001)
	assert.Equal(t, detection.StageOverride, verdict.Stage)
	assert.Zero(t, f.remote.calls)

	require.Len(t, f.scans.created, 1)
	assert.Nil(t, f.scans.created[0].Message)
}

func TestAnalyzeSenderLookupFailureFallsThrough(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.senders.lookupErr = errors.New("connection refused")

	verdict := f.analyze(t, textRequest(cleanMessage, "FRIEND"))

	assert.Equal(t, enum.RiskLevelLow, verdict.Level)
	assert.Equal(t, detection.StageFusion, verdict.Stage)
	assert.Equal(t, 1, f.remote.calls)
}

func TestAnalyzePatternShortCircuit(t *testing.T) {
	t.Parallel()

	f := newFixture()

	verdict := f.analyze(t, textRequest(kycMessage, "+919812345678"))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, detection.StagePatterns, verdict.Stage)
	require.NotNil(t, verdict.ScamType)
	assert.Equal(t, "kyc_scam", *verdict.ScamType)
	assert.GreaterOrEqual(t, verdict.Confidence, 0.85)
	assert.False(t, verdict.Adjusted)
	assert.Zero(t, f.remote.calls)
	assert.Empty(t, f.rep.calls)
}

func TestAnalyzeRemoteReceivesPatternHints(t *testing.T) {
	t.Parallel()

	f := newFixture()

	f.analyze(t, textRequest("Please verify your account details at your convenience", ""))

	require.Equal(t, 1, f.remote.calls)
	assert.Contains(t, f.remote.hints, "verification_scam")
}

func TestAnalyzeModelDisagreementCapsAtMedium(t *testing.T) {
	t.Parallel()

	message := "Please verify your account details at your convenience"
	pattern := patterns.NewMatcher().Evaluate(message, "")
	require.Equal(t, enum.RiskLevelMedium, pattern.Level)

	f := newFixture()

	verdict := f.analyze(t, textRequest(message, ""))

	assert.Equal(t, enum.RiskLevelMedium, verdict.Level)
	assert.Equal(t, pattern.Reason, verdict.Reason)
	assert.InDelta(t, pattern.Confidence, verdict.Confidence, 0.0001)
	assert.False(t, verdict.Adjusted)
	require.NotNil(t, verdict.ScamType)
	assert.Equal(t, "verification_scam", *verdict.ScamType)
}

func TestAnalyzeRemoteFailureFallsBackToPatterns(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.remote.err = errors.New("deadline exceeded")

	verdict := f.analyze(t, textRequest("Please verify your account details at your convenience", ""))

	assert.Equal(t, enum.RiskLevelMedium, verdict.Level)
	assert.Equal(t, "Detected verification scam", verdict.Reason)
	assert.InDelta(t, 0.45, verdict.Confidence, 0.0001)
	assert.True(t, verdict.Adjusted)
}

func TestAnalyzeRemoteHighDrivesVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	scamType := "kyc_scam"
	f.remote.verdict = &ai.ModelVerdict{
		Level:      enum.RiskLevelHigh,
		Reason:     "Asks the user to surrender account credentials",
		ScamType:   &scamType,
		Confidence: 0.8,
		Language:   "hi",
	}

	verdict := f.analyze(t, textRequest("Your photo from yesterday was nice", ""))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, "Asks the user to surrender account credentials", verdict.Reason)
	assert.InDelta(t, 0.75, verdict.Confidence, 0.0001)
	assert.True(t, verdict.Adjusted)
	assert.Equal(t, "hi", verdict.Language)
	assert.Equal(t, detection.StageFusion, verdict.Stage)
}

func TestAnalyzeReputationPromotesCleanVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.rep.hits["news.test/article"] = &reputation.Hit{
		IsBlacklisted: true,
		ReportsCount:  2,
		RiskBoost:     0.2,
		RiskScore:     0.7,
	}

	verdict := f.analyze(t, textRequest("Read https://news.test/article when free", ""))

	assert.Equal(t, enum.RiskLevelMedium, verdict.Level)
	assert.Equal(t, "Ordinary message (Also found in reputation database)", verdict.Reason)
	assert.InDelta(t, 0.45, verdict.Confidence, 0.0001)
	assert.True(t, verdict.Adjusted)
	require.NotNil(t, verdict.ReputationHit)
	assert.Equal(t, 2, verdict.ReputationHit.ReportsCount)
}

func TestAnalyzeVerifiedHitForcesHigh(t *testing.T) {
	t.Parallel()

	f := newFixture()
	scamType := "kyc_scam"
	f.rep.hits["news.test/article"] = &reputation.Hit{
		IsBlacklisted: true,
		ReportsCount:  12,
		IsVerified:    true,
		ScamType:      &scamType,
		RiskBoost:     0.3,
		RiskScore:     1.0,
	}

	verdict := f.analyze(t, textRequest("Read https://news.test/article when free", ""))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.InDelta(t, 0.75, verdict.Confidence, 0.0001)
	assert.True(t, verdict.Adjusted)
	require.NotNil(t, verdict.ScamType)
	assert.Equal(t, "kyc_scam", *verdict.ScamType)
	assert.Contains(t, verdict.Reason, "(Also found in reputation database)")
}

func TestAnalyzeRegulatedDowngradeKeepsLabel(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.remote.verdict = &ai.ModelVerdict{
		Level:      enum.RiskLevelLow,
		Reason:     "Ordinary promotional message",
		Confidence: 0.85,
		Language:   "en",
	}

	verdict := f.analyze(t, textRequest("Flash sale! Last chance to save big -P", "HDFCBK"))

	assert.Equal(t, enum.RiskLevelLow, verdict.Level)
	assert.Equal(t, "Regulated sender with declared purpose suffix", verdict.Reason)
	require.NotNil(t, verdict.ScamType)
	assert.Equal(t, patterns.SpecialMarketing, *verdict.ScamType)
	assert.InDelta(t, 0.06, verdict.Confidence, 0.0001)

	// A downgrade is not a short-circuit: the model stages still run.
	assert.Equal(t, 1, f.remote.calls)
}

func TestAnalyzeLocalModelShortCircuit(t *testing.T) {
	t.Parallel()

	f := newFixture()
	scamType := "otp_theft"
	f.local = &fakeLocal{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelHigh,
		Reason:     "Requests a one-time password",
		ScamType:   &scamType,
		Confidence: 0.95,
		Language:   "en",
	}}

	verdict := f.analyze(t, textRequest("Could you forward the code I just sent you", ""))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, detection.StageLocalModel, verdict.Stage)
	assert.InDelta(t, 0.95, verdict.Confidence, 0.0001)
	assert.False(t, verdict.Adjusted)
	assert.Equal(t, 1, f.local.calls)
	assert.Zero(t, f.remote.calls)
}

func TestAnalyzeWeakLocalVerdictJoinsFusion(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.local = &fakeLocal{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelMedium,
		Reason:     "Unusual request",
		Confidence: 0.6,
		Language:   "en",
	}}
	f.remote.verdict = &ai.ModelVerdict{
		Level:      enum.RiskLevelHigh,
		Reason:     "Credential phishing attempt",
		Confidence: 0.9,
		Language:   "en",
	}

	verdict := f.analyze(t, textRequest("Team dinner at eight today?", ""))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, "Credential phishing attempt", verdict.Reason)
	assert.Equal(t, detection.StageFusion, verdict.Stage)
	assert.Equal(t, 1, f.local.calls)
	assert.Equal(t, 1, f.remote.calls)
}

func TestAnalyzeLocalFailureSkipsStage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.local = &fakeLocal{err: errors.New("connection refused")}

	verdict := f.analyze(t, textRequest(cleanMessage, ""))

	assert.Equal(t, enum.RiskLevelLow, verdict.Level)
	assert.Equal(t, 1, f.local.calls)
	assert.Equal(t, 1, f.remote.calls)
}

func TestAnalyzeURLLooksUpValueItself(t *testing.T) {
	t.Parallel()

	f := newFixture()

	// The pipeline hands the artifact to the checker as-is; normalization is
	// the checker's job.
	f.rep.hits["https://evil-offers.test/landing"] = &reputation.Hit{
		IsBlacklisted: true,
		ReportsCount:  4,
		RiskBoost:     0.2,
		RiskScore:     0.9,
	}

	req := textRequest("https://evil-offers.test/landing", "")
	req.ContentType = detection.ContentTypeAuto

	verdict := f.analyze(t, req)

	require.NotEmpty(t, f.rep.calls)
	assert.Equal(t, "url:https://evil-offers.test/landing", f.rep.calls[0])
	assert.Equal(t, enum.RiskLevelMedium, verdict.Level)
	require.NotNil(t, verdict.ReputationHit)
}

func TestAnalyzePhoneVerdicts(t *testing.T) {
	t.Parallel()

	t.Run("blacklisted number", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.rep.hits["+91 98765 43210"] = &reputation.Hit{
			IsBlacklisted: true,
			ReportsCount:  3,
			RiskBoost:     0.2,
			RiskScore:     0.8,
		}

		req := textRequest("+91 98765 43210", "")
		req.ContentType = detection.ContentTypeAuto

		verdict := f.analyze(t, req)

		assert.Equal(t, enum.RiskLevelMedium, verdict.Level)
		assert.Equal(t, "Phone number reported 3 times as scam", verdict.Reason)
		assert.InDelta(t, 0.74, verdict.Confidence, 0.0001)
		assert.True(t, verdict.Adjusted)
		require.NotNil(t, verdict.ScamType)
		assert.Equal(t, "Reported Number", *verdict.ScamType)
		assert.Equal(t, detection.StageReputation, verdict.Stage)
		assert.Zero(t, f.remote.calls)
	})

	t.Run("verified number forces high", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.rep.hits["+91 98765 43210"] = &reputation.Hit{
			IsBlacklisted: true,
			ReportsCount:  20,
			IsVerified:    true,
			RiskBoost:     0.3,
			RiskScore:     1.0,
		}

		req := textRequest("+91 98765 43210", "")
		req.ContentType = detection.ContentTypeAuto

		verdict := f.analyze(t, req)

		assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
		assert.InDelta(t, 0.85, verdict.Confidence, 0.0001)
		assert.False(t, verdict.Adjusted)
	})

	t.Run("trusted number", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.senders.trusted["9876543210"] = true

		req := textRequest("9876543210", "")
		req.ContentType = detection.ContentTypeAuto

		verdict := f.analyze(t, req)

		assert.Equal(t, enum.RiskLevelLow, verdict.Level)
		assert.Equal(t, "This number is in your trusted list", verdict.Reason)
		assert.Equal(t, detection.StageOverride, verdict.Stage)
	})

	t.Run("unknown number", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		req := textRequest("9876543210", "")
		req.ContentType = detection.ContentTypeAuto

		verdict := f.analyze(t, req)

		assert.Equal(t, enum.RiskLevelLow, verdict.Level)
		assert.Equal(t, "No reports found for this number", verdict.Reason)
		assert.InDelta(t, 0.44, verdict.Confidence, 0.0001)
		assert.True(t, verdict.Adjusted)
	})
}

func TestAnalyzeAutoBlocksHighRiskSender(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.users.settings = &types.UserSettings{
		UserID:            1,
		Language:          "en",
		AutoBlockHighRisk: true,
		AlertThreshold:    enum.AlertThresholdHigh,
	}

	verdict := f.analyze(t, textRequest(kycMessage, "+919812345678"))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, []string{"+919812345678"}, f.senders.blockCalls)

	require.Len(t, f.scans.created, 1)
	assert.True(t, f.scans.created[0].Blocked)
	assert.Equal(t, f.scans.created[0].ID, verdict.ScanID)
}

func TestAnalyzeTipFollowsSetting(t *testing.T) {
	t.Parallel()

	t.Run("default settings attach a tip", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		verdict := f.analyze(t, textRequest(kycMessage, ""))

		assert.NotEmpty(t, verdict.Tip)
	})

	t.Run("opted-out users get none", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.users.settings = &types.UserSettings{
			UserID:         1,
			Language:       "en",
			AlertThreshold: enum.AlertThresholdHigh,
			ReceiveTips:    false,
		}

		verdict := f.analyze(t, textRequest(kycMessage, ""))

		assert.Empty(t, verdict.Tip)
	})
}

func TestAnalyzeAutoExtractRespectsConsent(t *testing.T) {
	t.Parallel()

	t.Run("consented user attaches training data", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		f.users.user.ConsentTrainingData = true

		f.analyze(t, textRequest(kycMessage, ""))

		require.Len(t, f.rep.extracts, 1)
		training := f.rep.extracts[0]
		require.NotNil(t, training)
		assert.True(t, training.Consented)
		assert.Equal(t, kycMessage, training.FullMessage)
		assert.InDelta(t, 0.88, training.Confidence, 0.001)
	})

	t.Run("without consent the verdict context still flows", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		f.analyze(t, textRequest(kycMessage, ""))

		require.Len(t, f.rep.extracts, 1)
		training := f.rep.extracts[0]
		require.NotNil(t, training)
		assert.False(t, training.Consented)
		assert.InDelta(t, 0.88, training.Confidence, 0.001)
	})

	t.Run("low verdicts never extract", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		f.analyze(t, textRequest(cleanMessage, ""))

		assert.Empty(t, f.rep.extracts)
	})
}

func TestAnalyzeFansOutToGuardians(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.alerter.count = 2

	verdict := f.analyze(t, textRequest(kycMessage, ""))

	require.Len(t, f.alerter.scans, 1)
	assert.Equal(t, verdict.ScanID, f.alerter.scans[0].ID)
	assert.True(t, f.scans.created[0].GuardianAlerted)
}

func TestAnalyzeScanRecordShape(t *testing.T) {
	t.Parallel()

	t.Run("low verdicts drop the body", func(t *testing.T) {
		t.Parallel()

		f := newFixture()

		f.analyze(t, textRequest(cleanMessage, "FRIEND"))

		require.Len(t, f.scans.created, 1)
		scan := f.scans.created[0]
		assert.Nil(t, scan.Message)
		assert.Equal(t, cleanMessage, scan.Preview)
		assert.Equal(t, enum.PlatformSMS, scan.Platform)
		assert.False(t, scan.Blocked)
	})

	t.Run("preview truncates to two hundred runes", func(t *testing.T) {
		t.Parallel()

		f := newFixture()
		content := strings.Repeat("अ", 250)

		f.analyze(t, textRequest(content, ""))

		require.Len(t, f.scans.created, 1)
		assert.Equal(t, 200, utf8.RuneCountInString(f.scans.created[0].Preview))
	})
}

func TestAnalyzePersistFailureKeepsVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.scans.err = errors.New("database down")

	verdict := f.analyze(t, textRequest(kycMessage, ""))

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Zero(t, verdict.ScanID)
	assert.Empty(t, f.alerter.scans)
	assert.Empty(t, f.rep.extracts)
	assert.Empty(t, f.senders.blockCalls)
}

func TestAnalyzeImageVisionVerdict(t *testing.T) {
	t.Parallel()

	f := newFixture()
	scamType := "kyc_scam"
	f.vision = &fakeVision{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelHigh,
		Reason:     "Screenshot imitates a bank KYC form asking for card details",
		ScamType:   &scamType,
		Confidence: 0.92,
		Language:   "en",
	}}

	verdict, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest("+919812345678"))
	require.NoError(t, err)

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, "Screenshot imitates a bank KYC form asking for card details", verdict.Reason)
	assert.InDelta(t, 0.92, verdict.Confidence, 0.0001)
	assert.Equal(t, detection.StageRemoteModel, verdict.Stage)
	assert.False(t, verdict.Adjusted)
	assert.Equal(t, 1, f.vision.calls)

	require.Len(t, f.scans.created, 1)
	scan := f.scans.created[0]
	assert.Equal(t, scan.ID, verdict.ScanID)
	assert.Equal(t, "[image]", scan.Preview)
	assert.Nil(t, scan.Message)

	// Screenshots carry no text body to mine for artifacts.
	assert.Empty(t, f.rep.extracts)
}

func TestAnalyzeImageValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  *detection.ImageRequest
	}{
		{
			name: "empty image",
			req:  &detection.ImageRequest{MimeType: "image/png", UserID: 1, Platform: enum.PlatformIM},
		},
		{
			name: "missing user",
			req:  &detection.ImageRequest{Data: []byte{0x89}, MimeType: "image/png", Platform: enum.PlatformIM},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture()
			f.vision = &fakeVision{verdict: &ai.ModelVerdict{
				Level:      enum.RiskLevelLow,
				Reason:     "Nothing suspicious",
				Confidence: 0.3,
				Language:   "en",
			}}

			_, err := f.pipeline(t).AnalyzeImage(t.Context(), tt.req)
			require.ErrorIs(t, err, types.ErrValidation)
			assert.Empty(t, f.scans.created)
			assert.Zero(t, f.vision.calls)
		})
	}
}

func TestAnalyzeImageWithoutVisionModel(t *testing.T) {
	t.Parallel()

	f := newFixture()

	_, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest(""))
	require.ErrorIs(t, err, types.ErrUnavailable)
	assert.Empty(t, f.scans.created)
}

func TestAnalyzeImageBlockedSenderSkipsVision(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.senders.blocked["+919999999999"] = true
	f.vision = &fakeVision{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelLow,
		Reason:     "Nothing suspicious",
		Confidence: 0.3,
		Language:   "en",
	}}

	verdict, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest("+919999999999"))
	require.NoError(t, err)

	assert.Equal(t, enum.RiskLevelHigh, verdict.Level)
	assert.Equal(t, "Blocked sender", verdict.Reason)
	assert.Equal(t, detection.StageOverride, verdict.Stage)
	assert.Zero(t, f.vision.calls)

	require.Len(t, f.scans.created, 1)
	assert.True(t, f.scans.created[0].Blocked)
}

func TestAnalyzeImageModelFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.vision = &fakeVision{err: errors.New("deadline exceeded")}

	_, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest(""))
	require.Error(t, err)
	assert.Empty(t, f.scans.created)
}

func TestAnalyzeImageHighRiskRunsHooks(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.users.settings = &types.UserSettings{
		UserID:            1,
		Language:          "en",
		AutoBlockHighRisk: true,
		AlertThreshold:    enum.AlertThresholdHigh,
	}
	f.alerter.count = 1
	f.vision = &fakeVision{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelHigh,
		Reason:     "QR code asks the user to approve a collect request",
		Confidence: 0.9,
		Language:   "en",
	}}

	verdict, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest("+919812345678"))
	require.NoError(t, err)

	assert.Equal(t, []string{"+919812345678"}, f.senders.blockCalls)

	require.Len(t, f.scans.created, 1)
	assert.True(t, f.scans.created[0].Blocked)
	assert.True(t, f.scans.created[0].GuardianAlerted)

	require.Len(t, f.alerter.scans, 1)
	assert.Equal(t, verdict.ScanID, f.alerter.scans[0].ID)
}

func TestAnalyzeImageUnknownVerdictStillRecorded(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.vision = &fakeVision{verdict: &ai.ModelVerdict{
		Level:      enum.RiskLevelUnknown,
		Reason:     "Analysis service is busy, please retry shortly",
		Confidence: 0,
		Language:   "en",
	}}

	verdict, err := f.pipeline(t).AnalyzeImage(t.Context(), imageRequest(""))
	require.NoError(t, err)

	assert.Equal(t, enum.RiskLevelUnknown, verdict.Level)
	assert.Zero(t, verdict.Confidence)
	assert.False(t, verdict.Adjusted)
	require.Len(t, f.scans.created, 1)
}
