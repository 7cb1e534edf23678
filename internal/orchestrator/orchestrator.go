// Package orchestrator sequences the two pipeline stages. It carries no
// business rules of its own: extraction errors are surfaced verbatim, matcher
// invocation failures become a distinct transport error, and the matcher's
// response is returned unchanged.
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

// State tracks the linear progress of one verification.
type State string

const (
	StateReceived         State = "received"
	StateExtracting       State = "extracting"
	StateExtracted        State = "extracted"
	StateMatching         State = "matching"
	StateCompleted        State = "completed"
	StateExtractionFailed State = "extraction_failed"
	StateMatchingFailed   State = "matching_failed"
)

// Extractor is the first stage.
type Extractor interface {
	Process(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error)
}

// Matcher is the second stage.
type Matcher interface {
	Validate(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error)
}

// Orchestrator runs one verification request end to end. Stages are invoked
// synchronously and never in parallel.
type Orchestrator struct {
	extractor Extractor
	matcher   Matcher
	logger    *zap.Logger
}

// New wires the pipeline stages.
func New(extractor Extractor, matcher Matcher, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{extractor: extractor, matcher: matcher, logger: logger}
}

// Verify runs extraction then matching for a single request.
func (o *Orchestrator) Verify(ctx context.Context, req model.VerificationRequest) (*model.VerifyResponse, error) {
	state := StateReceived
	o.logger.Info("verification received", zap.String("state", string(state)))

	state = StateExtracting
	extracted, err := o.extractor.Process(ctx, req)
	if err != nil {
		state = StateExtractionFailed
		o.logger.Warn("extraction failed",
			zap.String("state", string(state)), zap.Error(err))
		return nil, err
	}
	state = StateExtracted
	o.logger.Info("extraction finished",
		zap.String("state", string(state)),
		zap.String("verification_id", extracted.VerificationID))

	state = StateMatching
	resp, err := o.matcher.Validate(ctx, model.MatchInput{
		VerificationID:     extracted.VerificationID,
		Timestamp:          extracted.Timestamp,
		ImageKey:           extracted.ImageKey,
		RegistrationNumber: extracted.RegistrationNumber,
		ProductName:        extracted.ProductName,
	})
	if err != nil {
		state = StateMatchingFailed
		o.logger.Error("matching stage unavailable",
			zap.String("state", string(state)), zap.Error(err))
		if appErr, ok := model.AsError(err); ok {
			return nil, appErr
		}
		return nil, model.NewUpstreamTransport("registry validation could not be invoked: " + err.Error())
	}

	state = StateCompleted
	o.logger.Info("verification completed",
		zap.String("state", string(state)),
		zap.String("verification_id", resp.VerificationID),
		zap.Bool("found", resp.ValidationResult.Found))
	return resp, nil
}
