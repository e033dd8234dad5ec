package detection

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rakshalabs/raksha/internal/ai"
	"github.com/rakshalabs/raksha/internal/database/types"
	"github.com/rakshalabs/raksha/internal/database/types/enum"
	"github.com/rakshalabs/raksha/internal/detection/patterns"
	"github.com/rakshalabs/raksha/internal/explain"
	"github.com/rakshalabs/raksha/internal/reputation"
	"github.com/rakshalabs/raksha/internal/setup/config"
	"go.uber.org/zap"
)

// Stage gates. Pattern verdicts more confident than these skip the model
// stages entirely; a local model verdict above localGate skips the remote
// call.
const (
	patternHighGate = 0.85
	patternLowGate  = 0.90
	localGate       = 0.90

	// defaultReputationTimeout bounds the whole reputation stage when the
	// config carries no value.
	defaultReputationTimeout = 2 * time.Second

	autoBlockReason = "Automatically blocked after a high risk message"

	// imagePreview stands in for the preview column on image scans, which
	// have no text body to truncate.
	imagePreview = "[image]"
)

// PipelineParams wires the pipeline's collaborators. Local, Vision, and
// Alerter may be nil, disabling their stages.
type PipelineParams struct {
	Matcher    *patterns.Matcher
	Senders    SenderStore
	Scans      ScanStore
	Users      UserStore
	Reputation ReputationChecker
	Local      LocalModel
	Remote     TextModel
	Vision     VisionModel
	Alerter    Alerter
	Config     *config.Detection
	Logger     *zap.Logger
}

// Pipeline runs artifacts through the staged analysis and records the
// outcome.
type Pipeline struct {
	matcher    *patterns.Matcher
	senders    SenderStore
	scans      ScanStore
	users      UserStore
	reputation ReputationChecker
	local      LocalModel
	remote     TextModel
	vision     VisionModel
	alerter    Alerter
	maxBytes   int
	autoMin    float64
	repTimeout time.Duration
	logger     *zap.Logger
}

// NewPipeline creates a detection pipeline.
func NewPipeline(params PipelineParams) *Pipeline {
	repTimeout := time.Duration(params.Config.ReputationTimeoutMillis) * time.Millisecond
	if repTimeout <= 0 {
		repTimeout = defaultReputationTimeout
	}

	return &Pipeline{
		matcher:    params.Matcher,
		senders:    params.Senders,
		scans:      params.Scans,
		users:      params.Users,
		reputation: params.Reputation,
		local:      params.Local,
		remote:     params.Remote,
		vision:     params.Vision,
		alerter:    params.Alerter,
		maxBytes:   params.Config.MaxContentBytes,
		autoMin:    params.Config.AutoBlacklistMinConf,
		repTimeout: repTimeout,
		logger:     params.Logger.Named("detection"),
	}
}

// Analyze runs one artifact through every applicable stage and persists the
// outcome. Only input validation can fail; every stage degrades by falling
// back to the evidence gathered so far.
func (p *Pipeline) Analyze(ctx context.Context, req *Request) (*Verdict, error) {
	if err := p.validate(req); err != nil {
		return nil, err
	}

	contentType := req.ContentType
	if contentType == ContentTypeAuto || contentType == "" {
		contentType = DetectContentType(req.Content)
	}

	verdict := p.classify(ctx, req, contentType)
	p.record(ctx, req, verdict)

	return verdict, nil
}

// AnalyzeImage classifies a screenshot and persists the outcome. Screenshots
// skip the text stages: the sender lists still apply, then the vision model
// decides. Decode and size problems are validation errors; vendor exhaustion
// is not, the caller gets the UNKNOWN verdict instead.
func (p *Pipeline) AnalyzeImage(ctx context.Context, req *ImageRequest) (*Verdict, error) {
	if p.vision == nil {
		return nil, fmt.Errorf("%w: image analysis is not configured", types.ErrUnavailable)
	}

	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", types.ErrValidation)
	}

	if len(req.Data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", types.ErrValidation)
	}

	verdict := p.senderOverride(ctx, &Request{
		Sender: req.Sender,
		UserID: req.UserID,
	})

	if verdict == nil {
		model, err := p.vision.Analyze(ctx, req.Data, req.MimeType, req.Sender)
		if err != nil {
			return nil, err
		}

		verdict = verdictFromModel(model, StageRemoteModel, nil)
	}

	p.recordImage(ctx, req, verdict)

	return verdict, nil
}

// validate enforces the input constraints shared by every entry point.
func (p *Pipeline) validate(req *Request) error {
	switch {
	case req.UserID <= 0:
		return fmt.Errorf("%w: user id is required", types.ErrValidation)
	case strings.TrimSpace(req.Content) == "":
		return fmt.Errorf("%w: content is empty", types.ErrValidation)
	case len(req.Content) > p.maxBytes:
		return fmt.Errorf("%w: content exceeds %d bytes", types.ErrValidation, p.maxBytes)
	case !utf8.ValidString(req.Content):
		return fmt.Errorf("%w: content is not valid UTF-8", types.ErrValidation)
	default:
		return nil
	}
}

// classify walks the stages in order until one of them is decisive.
func (p *Pipeline) classify(ctx context.Context, req *Request, contentType ContentType) *Verdict {
	if verdict := p.senderOverride(ctx, req); verdict != nil {
		return verdict
	}

	pattern := p.matcher.Evaluate(req.Content, req.Sender)
	if verdict := shortCircuitPattern(pattern); verdict != nil {
		p.logger.Debug("Pattern stage decisive",
			zap.String("ruleset", pattern.Ruleset),
			zap.String("level", string(pattern.Level)),
			zap.Float64("confidence", pattern.Confidence))

		return verdict
	}

	hit := p.lookupReputation(ctx, req.Content, contentType)

	// A bare number has no text for the models to judge; its verdict comes
	// from the reputation database alone.
	if contentType == ContentTypePhone {
		return p.phoneVerdict(ctx, req, hit)
	}

	var local *ai.ModelVerdict
	if p.local != nil {
		local = p.localStage(ctx, req)
		if local != nil && local.Confidence > localGate {
			return verdictFromModel(local, StageLocalModel, hit)
		}
	}

	remote := p.remoteStage(ctx, req, pattern)

	return fuse(&fuseInput{
		Message: req.Content,
		Pattern: pattern,
		Local:   local,
		Remote:  remote,
		Hit:     hit,
	})
}

// senderOverride resolves the per-user sender lists. A lookup failure skips
// the override rather than failing the scan.
func (p *Pipeline) senderOverride(ctx context.Context, req *Request) *Verdict {
	if req.Sender == "" {
		return nil
	}

	blocked, err := p.senders.IsBlocked(ctx, req.UserID, req.Sender)
	if err != nil {
		p.logger.Warn("Blocked sender lookup failed", zap.Error(err))
		return nil
	}

	if blocked {
		return &Verdict{
			Level:      enum.RiskLevelHigh,
			Reason:     "Blocked sender",
			Confidence: 1.0,
			Language:   "en",
			Stage:      StageOverride,
		}
	}

	trusted, err := p.senders.IsTrusted(ctx, req.UserID, req.Sender)
	if err != nil {
		p.logger.Warn("Trusted sender lookup failed", zap.Error(err))
		return nil
	}

	if trusted {
		return &Verdict{
			Level:      enum.RiskLevelLow,
			Reason:     "Trusted sender",
			Confidence: 0.1,
			Language:   "en",
			Stage:      StageOverride,
		}
	}

	return nil
}

// shortCircuitPattern returns a final verdict when the pattern stage alone
// is conclusive enough to skip the model stages.
func shortCircuitPattern(pattern *patterns.Result) *Verdict {
	conclusive := (pattern.Level == enum.RiskLevelHigh && pattern.Confidence >= patternHighGate) ||
		(pattern.Level == enum.RiskLevelLow && pattern.Confidence >= patternLowGate)
	if !conclusive {
		return nil
	}

	confidence, adjusted := Reconcile(pattern.Level, pattern.Confidence)

	return &Verdict{
		Level:      pattern.Level,
		Reason:     pattern.Reason,
		ScamType:   pattern.ScamType,
		Confidence: confidence,
		Language:   "en",
		Stage:      StagePatterns,
		Adjusted:   adjusted,
	}
}

// lookupReputation resolves the reputation evidence for the artifact: url
// and phone submissions are looked up as-is, text is mined for candidate
// entities and the worst hit wins. The whole stage shares one deadline.
func (p *Pipeline) lookupReputation(ctx context.Context, content string, contentType ContentType) *reputation.Hit {
	ctx, cancel := context.WithTimeout(ctx, p.repTimeout)
	defer cancel()

	switch contentType {
	case ContentTypeURL:
		return p.checkArtifact(ctx, content, enum.BlacklistTypeURL)
	case ContentTypePhone:
		return p.checkArtifact(ctx, content, enum.BlacklistTypePhone)
	default:
		var worst *reputation.Hit

		for _, artifact := range reputation.ExtractArtifacts(content) {
			hit := p.checkArtifact(ctx, artifact.Value, artifact.Type)
			if hit == nil || !hit.IsBlacklisted {
				continue
			}

			if hit.IsVerified {
				return hit
			}

			if worst == nil || hit.RiskScore > worst.RiskScore {
				worst = hit
			}
		}

		return worst
	}
}

func (p *Pipeline) checkArtifact(ctx context.Context, value string, artifactType enum.BlacklistType) *reputation.Hit {
	hit, err := p.reputation.Check(ctx, value, artifactType)
	if err != nil {
		p.logger.Warn("Reputation lookup failed",
			zap.String("type", string(artifactType)),
			zap.Error(err))

		return nil
	}

	return hit
}

// phoneVerdict scores a submitted phone number from the reputation database
// and the user's trusted list. Blacklist evidence wins over trust.
func (p *Pipeline) phoneVerdict(ctx context.Context, req *Request, hit *reputation.Hit) *Verdict {
	number := strings.TrimSpace(req.Content)

	if hit != nil && hit.IsBlacklisted {
		level := enum.RiskLevelMedium
		confidence := hit.RiskScore

		if hit.IsVerified {
			level = enum.RiskLevelHigh
			confidence = 0.85
		}

		scamType := hit.ScamType
		if scamType == nil {
			reported := "Reported Number"
			scamType = &reported
		}

		confidence, adjusted := Reconcile(level, confidence)

		return &Verdict{
			Level:         level,
			Reason:        fmt.Sprintf("Phone number reported %d times as scam", hit.ReportsCount),
			ScamType:      scamType,
			Confidence:    confidence,
			Language:      "en",
			Stage:         StageReputation,
			ReputationHit: hit,
			Adjusted:      adjusted,
		}
	}

	trusted, err := p.senders.IsTrusted(ctx, req.UserID, number)
	if err != nil {
		p.logger.Warn("Trusted number lookup failed", zap.Error(err))
	}

	if trusted {
		return &Verdict{
			Level:      enum.RiskLevelLow,
			Reason:     "This number is in your trusted list",
			Confidence: 0.1,
			Language:   "en",
			Stage:      StageOverride,
		}
	}

	confidence, adjusted := Reconcile(enum.RiskLevelLow, 0.6)

	return &Verdict{
		Level:      enum.RiskLevelLow,
		Reason:     "No reports found for this number",
		Confidence: confidence,
		Language:   "en",
		Stage:      StageReputation,
		Adjusted:   adjusted,
	}
}

func (p *Pipeline) localStage(ctx context.Context, req *Request) *ai.ModelVerdict {
	verdict, err := p.local.Classify(ctx, req.Content, req.Sender)
	if err != nil {
		p.logger.Warn("Local model stage skipped", zap.Error(err))
		return nil
	}

	return verdict
}

// remoteStage calls the remote model with the pattern matches as advisory
// hints. A transport failure drops the stage from fusion.
func (p *Pipeline) remoteStage(ctx context.Context, req *Request, pattern *patterns.Result) *ai.ModelVerdict {
	hints := make([]string, 0, len(pattern.Matches))
	for _, match := range pattern.Matches {
		hints = append(hints, string(match.Bucket))
	}

	verdict, err := p.remote.Analyze(ctx, req.Content, req.Sender, hints)
	if err != nil {
		p.logger.Warn("Remote model stage skipped", zap.Error(err))
		return nil
	}

	return verdict
}

// verdictFromModel finalizes a short-circuiting model verdict: the
// reputation promotion still applies, then band reconciliation.
func verdictFromModel(model *ai.ModelVerdict, stage string, hit *reputation.Hit) *Verdict {
	level, reason, scamType := applyReputation(hit, model.Level, model.Reason, model.ScamType)
	confidence, adjusted := Reconcile(level, model.Confidence)

	lang := model.Language
	if lang == "" {
		lang = "en"
	}

	return &Verdict{
		Level:         level,
		Reason:        reason,
		ScamType:      scamType,
		Confidence:    confidence,
		Language:      lang,
		Stage:         stage,
		ReputationHit: visibleHit(hit),
		Adjusted:      adjusted,
	}
}

// record persists the scan and runs the post-verdict hooks: auto-block,
// reputation auto-extraction, and guardian fan-out. Failures here are
// logged; the verdict already stands.
func (p *Pipeline) record(ctx context.Context, req *Request, verdict *Verdict) {
	settings := p.loadSettings(ctx, req.UserID)

	if settings.ReceiveTips {
		verdict.Tip = explain.QuickTip(verdict.ScamType)
	}

	overrideBlocked := verdict.Stage == StageOverride && verdict.Level == enum.RiskLevelHigh
	autoBlock := settings.AutoBlockHighRisk && !overrideBlocked &&
		verdict.Level == enum.RiskLevelHigh && req.Sender != ""

	scan := &types.Scan{
		UserID:     req.UserID,
		Sender:     req.Sender,
		Preview:    types.MakePreview(req.Content),
		Platform:   req.Platform,
		Level:      verdict.Level,
		Reason:     verdict.Reason,
		ScamType:   verdict.ScamType,
		Confidence: verdict.Confidence,
		Language:   verdict.Language,
		Blocked:    overrideBlocked || autoBlock,
		CreatedAt:  time.Now(),
	}

	// Clean traffic never stores the raw body.
	if verdict.Level != enum.RiskLevelLow {
		body := req.Content
		scan.Message = &body
	}

	if err := p.scans.Create(ctx, scan); err != nil {
		p.logger.Error("Failed to persist scan", zap.Int64("user_id", req.UserID), zap.Error(err))
		return
	}

	verdict.ScanID = scan.ID

	if autoBlock {
		if err := p.senders.Block(ctx, req.UserID, req.Sender, autoBlockReason); err != nil {
			p.logger.Warn("Auto-block failed", zap.String("sender", req.Sender), zap.Error(err))
		} else {
			p.logger.Info("Sender auto-blocked",
				zap.Int64("user_id", req.UserID),
				zap.String("sender", req.Sender))
		}
	}

	user, err := p.users.GetByID(ctx, req.UserID)
	if err != nil {
		p.logger.Warn("User lookup failed, skipping extraction and fan-out",
			zap.Int64("user_id", req.UserID),
			zap.Error(err))

		return
	}

	if verdict.Level == enum.RiskLevelHigh && verdict.Confidence >= p.autoMin {
		training := &reputation.TrainingData{
			FullMessage: req.Content,
			AIReasoning: verdict.Reason,
			ScamType:    verdict.ScamType,
			Confidence:  verdict.Confidence,
			Language:    verdict.Language,
			Consented:   user.ConsentTrainingData,
		}

		if count := p.reputation.AutoExtract(ctx, req.Content, training); count > 0 {
			p.logger.Info("Auto-extracted artifacts from high risk scan",
				zap.Int64("scan_id", scan.ID),
				zap.Int("count", count))
		}
	}

	if p.alerter != nil {
		alerted, err := p.alerter.AlertGuardians(ctx, scan, user, settings)
		if err != nil {
			p.logger.Warn("Guardian fan-out failed", zap.Int64("scan_id", scan.ID), zap.Error(err))
		}

		scan.GuardianAlerted = alerted > 0
	}
}

// recordImage persists an image scan and runs the post-verdict hooks. There
// is no message body to store or to mine for artifacts, so only auto-block
// and guardian fan-out apply.
func (p *Pipeline) recordImage(ctx context.Context, req *ImageRequest, verdict *Verdict) {
	settings := p.loadSettings(ctx, req.UserID)

	if settings.ReceiveTips {
		verdict.Tip = explain.QuickTip(verdict.ScamType)
	}

	overrideBlocked := verdict.Stage == StageOverride && verdict.Level == enum.RiskLevelHigh
	autoBlock := settings.AutoBlockHighRisk && !overrideBlocked &&
		verdict.Level == enum.RiskLevelHigh && req.Sender != ""

	scan := &types.Scan{
		UserID:     req.UserID,
		Sender:     req.Sender,
		Preview:    imagePreview,
		Platform:   req.Platform,
		Level:      verdict.Level,
		Reason:     verdict.Reason,
		ScamType:   verdict.ScamType,
		Confidence: verdict.Confidence,
		Language:   verdict.Language,
		Blocked:    overrideBlocked || autoBlock,
		CreatedAt:  time.Now(),
	}

	if err := p.scans.Create(ctx, scan); err != nil {
		p.logger.Error("Failed to persist image scan", zap.Int64("user_id", req.UserID), zap.Error(err))
		return
	}

	verdict.ScanID = scan.ID

	if autoBlock {
		if err := p.senders.Block(ctx, req.UserID, req.Sender, autoBlockReason); err != nil {
			p.logger.Warn("Auto-block failed", zap.String("sender", req.Sender), zap.Error(err))
		}
	}

	if p.alerter != nil {
		user, err := p.users.GetByID(ctx, req.UserID)
		if err != nil {
			p.logger.Warn("User lookup failed, skipping fan-out",
				zap.Int64("user_id", req.UserID),
				zap.Error(err))

			return
		}

		alerted, err := p.alerter.AlertGuardians(ctx, scan, user, settings)
		if err != nil {
			p.logger.Warn("Guardian fan-out failed", zap.Int64("scan_id", scan.ID), zap.Error(err))
		}

		scan.GuardianAlerted = alerted > 0
	}
}

func (p *Pipeline) loadSettings(ctx context.Context, userID int64) *types.UserSettings {
	settings, err := p.users.GetSettings(ctx, userID)
	if err != nil {
		p.logger.Warn("Settings lookup failed, using defaults",
			zap.Int64("user_id", userID),
			zap.Error(err))

		return types.DefaultUserSettings(userID)
	}

	return settings
}
