package registry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

// RecordStore persists verification records.
type RecordStore interface {
	Create(ctx context.Context, rec *model.VerificationRecord) error
}

// Publisher announces completed verifications. Publishing is best-effort and
// never fails a verification.
type Publisher interface {
	PublishVerificationCompleted(ctx context.Context, rec *model.VerificationRecord) error
}

// Validator is the matching stage. Registry session failures never escape:
// they become an explicit registry-unreachable verdict, and a record is
// written no matter what the session did.
type Validator struct {
	session   Session
	records   RecordStore
	events    Publisher
	retention time.Duration
	logger    *zap.Logger
}

// NewValidator wires the stage's collaborators. events may be nil.
func NewValidator(session Session, records RecordStore, events Publisher, logger *zap.Logger) *Validator {
	return &Validator{
		session:   session,
		records:   records,
		events:    events,
		retention: model.RetentionPeriod,
		logger:    logger,
	}
}

// Validate searches the registry for the extracted number (preferred) or
// product name, persists the outcome, and returns the record-equivalent
// response.
func (v *Validator) Validate(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error) {
	if in.VerificationID == "" || in.Timestamp == "" {
		return nil, model.NewInvalidInput("missing required fields")
	}

	result := v.search(ctx, in)

	rec := &model.VerificationRecord{
		VerificationID:     in.VerificationID,
		Timestamp:          in.Timestamp,
		ImageKey:           in.ImageKey,
		RegistrationNumber: in.RegistrationNumber,
		ValidationResult:   result,
		ExpiresAt:          time.Now().UTC().Add(v.retention),
	}
	if err := v.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("store verification record: %w", err)
	}

	if v.events != nil {
		if err := v.events.PublishVerificationCompleted(ctx, rec); err != nil {
			v.logger.Warn("failed to publish completion event",
				zap.Error(err), zap.String("verification_id", in.VerificationID))
		}
	}

	return &model.VerifyResponse{
		VerificationID:     in.VerificationID,
		Timestamp:          in.Timestamp,
		ImageKey:           in.ImageKey,
		RegistrationNumber: in.RegistrationNumber,
		ValidationResult:   result,
	}, nil
}

func (v *Validator) search(ctx context.Context, in model.MatchInput) model.ValidationResult {
	var (
		term       string
		mode       SearchMode
		searchType model.SearchType
	)
	switch {
	case in.RegistrationNumber != nil && *in.RegistrationNumber != "":
		term, mode, searchType = *in.RegistrationNumber, ModeNumber, model.SearchTypeNumber
	case in.ProductName != nil && *in.ProductName != "":
		term, mode, searchType = *in.ProductName, ModeName, model.SearchTypeName
	default:
		v.logger.Warn("nothing to search", zap.String("verification_id", in.VerificationID))
		return model.ValidationResult{
			Success: false,
			Found:   false,
			Message: "No registration number or product name provided",
		}
	}

	base := model.ValidationResult{
		Success:            true,
		SearchTerm:         term,
		SearchType:         searchType,
		RegistrationNumber: in.RegistrationNumber,
	}

	res, err := v.session.Search(ctx, term, mode)
	if err != nil {
		// Closed-form fallback, no retry: the caller gets a verdict that is
		// distinguishable from a true negative.
		v.logger.Error("registry session failed", zap.Error(err), zap.String("term", term))
		base.Found = false
		base.RegistryUnreachable = true
		base.Message = fmt.Sprintf("Registry could not be queried (searched by %s); result is inconclusive", searchType)
		return base
	}

	if res.TimedOut || len(res.Matches) == 0 {
		base.Found = false
		base.Message = fmt.Sprintf("Product not found in NAFDAC Greenbook (searched by %s)", searchType)
		return base
	}

	base.Found = true
	base.Matches = res.Matches
	return base
}
