// Package extraction implements the first pipeline stage: persist the
// packaging image, then derive a registration number (pattern scan over
// recognized text) or, failing that, a product name (vision model).
package extraction

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echefulouis/drug-verification-system/internal/model"
	"github.com/echefulouis/drug-verification-system/internal/ocr"
	"github.com/echefulouis/drug-verification-system/internal/s3storage"
)

// BlobStore persists the source image.
type BlobStore interface {
	UploadImage(ctx context.Context, objectKey string, data []byte) error
}

// Recognizer runs text recognition over a stored image.
type Recognizer interface {
	DetectText(ctx context.Context, imageKey string) ([]ocr.Line, error)
}

// Namer produces a bare product name from the image when no registration
// number was recognized.
type Namer interface {
	DescribeProduct(ctx context.Context, image []byte, textContext string) (string, error)
}

// Registration numbers are letter/digit-prefix, hyphen, 4-6 digit suffix.
// The hyphen may carry whitespace in recognized text; matches are
// word-bounded so partial tokens never qualify.
var registrationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b[A-Z]\d{1,2}\s*-\s*\d{4,6}\b`),
	regexp.MustCompile(`\b\d{2}\s*-\s*\d{4,6}\b`),
}

var hyphenSpacing = regexp.MustCompile(`\s*-\s*`)

// Service is the extraction stage. All recognition failures degrade to a
// result with nil fields; only missing image input is an error.
type Service struct {
	store      BlobStore
	recognizer Recognizer
	namer      Namer
	logger     *zap.Logger
}

// NewService wires the stage's collaborators.
func NewService(store BlobStore, recognizer Recognizer, namer Namer, logger *zap.Logger) *Service {
	return &Service{
		store:      store,
		recognizer: recognizer,
		namer:      namer,
		logger:     logger,
	}
}

// Process runs the stage for one request.
func (s *Service) Process(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
	if len(req.Image) == 0 {
		return nil, model.NewInvalidInput("missing image data")
	}

	verificationID := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	imageKey := s3storage.ImageKey(timestamp, verificationID)

	if err := s.store.UploadImage(ctx, imageKey, req.Image); err != nil {
		return nil, model.NewUpstreamTransport("failed to store image: " + err.Error())
	}
	s.logger.Info("image stored", zap.String("image_key", imageKey))

	result := &model.ExtractionResult{
		VerificationID: verificationID,
		Timestamp:      timestamp,
		ImageKey:       imageKey,
	}

	// Operator input is trusted unconditionally; recognition is skipped.
	if req.RegistrationNumber != "" {
		number := req.RegistrationNumber
		result.RegistrationNumber = &number
		return result, nil
	}

	lines, err := s.detectText(ctx, imageKey)
	if err != nil {
		s.logger.Error("text recognition failed", zap.Error(err), zap.String("image_key", imageKey))
		return result, nil
	}

	allText := joinLines(lines)
	if allText != "" {
		result.ExtractedText = &allText
	}

	if number, confidence, ok := bestCandidate(lines); ok {
		s.logger.Info("registration number recognized",
			zap.String("number", number), zap.Float64("confidence", confidence))
		result.RegistrationNumber = &number
		result.OCRConfidence = &confidence
		return result, nil
	}

	s.logger.Warn("no registration number recognized, asking vision model",
		zap.String("verification_id", verificationID))
	name, err := s.namer.DescribeProduct(ctx, req.Image, allText)
	if err != nil {
		s.logger.Error("product naming failed", zap.Error(err))
		return result, nil
	}
	if name != "" {
		result.ProductName = &name
	}
	return result, nil
}

func (s *Service) detectText(ctx context.Context, imageKey string) ([]ocr.Line, error) {
	if s.recognizer == nil {
		return nil, nil
	}
	return s.recognizer.DetectText(ctx, imageKey)
}

// bestCandidate scans every line for registration-number shapes and picks
// the match from the highest-confidence line; ties keep the first seen.
func bestCandidate(lines []ocr.Line) (string, float64, bool) {
	var (
		best           string
		bestConfidence float64
		found          bool
	)
	for _, line := range lines {
		for _, pattern := range registrationPatterns {
			for _, match := range pattern.FindAllString(line.Text, -1) {
				number := normalizeNumber(match)
				if !found || line.Confidence > bestConfidence {
					best = number
					bestConfidence = line.Confidence
					found = true
				}
			}
		}
	}
	return best, bestConfidence, found
}

// normalizeNumber collapses whitespace around the hyphen and upcases.
func normalizeNumber(raw string) string {
	return strings.ToUpper(hyphenSpacing.ReplaceAllString(strings.TrimSpace(raw), "-"))
}

func joinLines(lines []ocr.Line) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.Text != "" {
			parts = append(parts, line.Text)
		}
	}
	return strings.Join(parts, " ")
}
