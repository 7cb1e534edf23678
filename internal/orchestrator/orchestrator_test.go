package orchestrator

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/echefulouis/drug-verification-system/internal/model"
)

type mockExtractor struct {
	processFunc func(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error)
}

func (m *mockExtractor) Process(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
	return m.processFunc(ctx, req)
}

type mockMatcher struct {
	validateFunc func(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error)
	calls        int
	lastInput    model.MatchInput
}

func (m *mockMatcher) Validate(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error) {
	m.calls++
	m.lastInput = in
	if m.validateFunc != nil {
		return m.validateFunc(ctx, in)
	}
	return &model.VerifyResponse{VerificationID: in.VerificationID, Timestamp: in.Timestamp}, nil
}

func strptr(s string) *string { return &s }

func TestVerifyExtractionFailureSkipsMatching(t *testing.T) {
	extractor := &mockExtractor{
		processFunc: func(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
			return nil, model.NewInvalidInput("missing image data")
		},
	}
	matcher := &mockMatcher{}
	o := New(extractor, matcher, zaptest.NewLogger(t))

	_, err := o.Verify(context.Background(), model.VerificationRequest{})
	if err == nil {
		t.Fatal("expected extraction error to surface")
	}
	appErr, ok := model.AsError(err)
	if !ok || appErr.Code != model.ErrCodeInvalidInput {
		t.Fatalf("expected %s verbatim, got %v", model.ErrCodeInvalidInput, err)
	}
	if matcher.calls != 0 {
		t.Fatalf("matcher must not run after extraction failed, got %d calls", matcher.calls)
	}
}

func TestVerifyForwardsExtractionFields(t *testing.T) {
	extractor := &mockExtractor{
		processFunc: func(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
			return &model.ExtractionResult{
				VerificationID:     "ver-7",
				Timestamp:          "2026-08-29T10:00:00Z",
				ImageKey:           "images/2026-08-29T10:00:00Z_ver-7.jpg",
				RegistrationNumber: strptr("A4-101466"),
				ProductName:        strptr("Coartem"),
			}, nil
		},
	}
	matcher := &mockMatcher{}
	o := New(extractor, matcher, zaptest.NewLogger(t))

	resp, err := o.Verify(context.Background(), model.VerificationRequest{Image: []byte("x")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := matcher.lastInput
	if in.VerificationID != "ver-7" || in.ImageKey != "images/2026-08-29T10:00:00Z_ver-7.jpg" {
		t.Fatalf("unexpected match input %+v", in)
	}
	if in.RegistrationNumber == nil || *in.RegistrationNumber != "A4-101466" {
		t.Fatalf("registration number not forwarded: %+v", in)
	}
	if in.ProductName == nil || *in.ProductName != "Coartem" {
		t.Fatalf("product name not forwarded: %+v", in)
	}
	if resp.VerificationID != "ver-7" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestVerifyMatcherErrorBecomesTransportError(t *testing.T) {
	extractor := &mockExtractor{
		processFunc: func(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
			return &model.ExtractionResult{VerificationID: "ver-1", Timestamp: "t"}, nil
		},
	}
	matcher := &mockMatcher{
		validateFunc: func(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error) {
			return nil, errors.New("pg pool exhausted")
		},
	}
	o := New(extractor, matcher, zaptest.NewLogger(t))

	_, err := o.Verify(context.Background(), model.VerificationRequest{Image: []byte("x")})
	appErr, ok := model.AsError(err)
	if !ok || appErr.Code != model.ErrCodeUpstreamTransport {
		t.Fatalf("expected %s, got %v", model.ErrCodeUpstreamTransport, err)
	}
}

func TestVerifyMatcherAppErrorPassesThrough(t *testing.T) {
	extractor := &mockExtractor{
		processFunc: func(ctx context.Context, req model.VerificationRequest) (*model.ExtractionResult, error) {
			return &model.ExtractionResult{VerificationID: "ver-1", Timestamp: "t"}, nil
		},
	}
	matcher := &mockMatcher{
		validateFunc: func(ctx context.Context, in model.MatchInput) (*model.VerifyResponse, error) {
			return nil, model.NewInvalidInput("missing required fields")
		},
	}
	o := New(extractor, matcher, zaptest.NewLogger(t))

	_, err := o.Verify(context.Background(), model.VerificationRequest{Image: []byte("x")})
	appErr, ok := model.AsError(err)
	if !ok || appErr.Code != model.ErrCodeInvalidInput {
		t.Fatalf("expected %s passthrough, got %v", model.ErrCodeInvalidInput, err)
	}
}
