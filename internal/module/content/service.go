package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/postforge/server/internal/module/entitlement"
	"github.com/postforge/server/internal/shared/logger"
	"github.com/postforge/server/internal/utils/metrics"
)

// ErrUnsupportedPlatform is returned for generation targets the prompt
// library does not know.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// Gate is the slice of the entitlement module the content service needs.
// entitlement.Service satisfies it.
type Gate interface {
	Authorize(ctx context.Context, userID uuid.UUID, kind entitlement.UsageKind) (*entitlement.Decision, error)
	EnforceFairUsage(ctx context.Context, userID uuid.UUID, kind entitlement.UsageKind) (entitlement.FairUsage, error)
	Charge(ctx context.Context, userID uuid.UUID, kind entitlement.UsageKind, d *entitlement.Decision) error
}

// Service runs gated AI chat and content generation.
type Service struct {
	ai      AIClient
	gate    Gate
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewService creates a new content service.
func NewService(ai AIClient, gate Gate, m *metrics.Metrics, log *logger.Logger) *Service {
	return &Service{ai: ai, gate: gate, metrics: m, logger: log}
}

// Chat runs one gated assistant exchange. Usage is only charged after the
// AI call succeeds, so a failed backend never burns trial quota.
func (s *Service) Chat(ctx context.Context, userID uuid.UUID, req *ChatRequest) (*ChatResponse, error) {
	decision, fair, err := s.admit(ctx, userID, entitlement.UsageKindChat)
	if err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(req.History)+2)
	messages = append(messages, Message{Role: "system", Content: chatSystemPrompt})
	messages = append(messages, req.History...)
	messages = append(messages, Message{Role: "user", Content: req.Message})

	reply, err := s.complete(ctx, entitlement.UsageKindChat, messages)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	s.charge(ctx, userID, entitlement.UsageKindChat, decision)
	return &ChatResponse{Reply: reply, FairUsageWarn: fair.Warn}, nil
}

// Generate produces one platform-targeted piece of content.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID, req *GenerateRequest) (*GenerateResponse, error) {
	if !IsSupportedPlatform(req.Platform) {
		return nil, ErrUnsupportedPlatform
	}

	decision, fair, err := s.admit(ctx, userID, entitlement.UsageKindContent)
	if err != nil {
		return nil, err
	}

	text, err := s.complete(ctx, entitlement.UsageKindContent, buildGenerationPrompt(req.Platform, req.Topic, req.Tone))
	if err != nil {
		return nil, fmt.Errorf("content generation: %w", err)
	}

	s.charge(ctx, userID, entitlement.UsageKindContent, decision)
	return &GenerateResponse{
		Platform:      req.Platform,
		Content:       text,
		Hashtags:      ExtractHashtags(text),
		FairUsageWarn: fair.Warn,
	}, nil
}

// complete calls the AI backend, recording latency and outcome per kind.
func (s *Service) complete(ctx context.Context, kind entitlement.UsageKind, messages []Message) (string, error) {
	start := time.Now()
	reply, err := s.ai.Complete(ctx, messages)
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.AIRequestsTotal.WithLabelValues(string(kind), status).Inc()
		s.metrics.AIRequestDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}
	return reply, err
}

// admit runs the entitlement gate and, for subscribers, the fairness
// throttle.
func (s *Service) admit(ctx context.Context, userID uuid.UUID, kind entitlement.UsageKind) (*entitlement.Decision, entitlement.FairUsage, error) {
	decision, err := s.gate.Authorize(ctx, userID, kind)
	if err != nil {
		return nil, entitlement.FairUsage{}, err
	}

	var fair entitlement.FairUsage
	if decision.Subscriber {
		fair, err = s.gate.EnforceFairUsage(ctx, userID, kind)
		if err != nil {
			return nil, entitlement.FairUsage{}, err
		}
	}
	return decision, fair, nil
}

// charge records a completed action. Counter failures are logged, not
// surfaced: the user already got their result.
func (s *Service) charge(ctx context.Context, userID uuid.UUID, kind entitlement.UsageKind, d *entitlement.Decision) {
	if err := s.gate.Charge(ctx, userID, kind, d); err != nil {
		s.logger.ErrorContext(ctx, "charge usage",
			"user_id", userID.String(), "kind", string(kind), logger.Err(err))
	}
}
