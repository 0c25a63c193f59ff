package byom

import (
	"context"
	"fmt"

	"github.com/merch/byom/internal/domain/byom"
	"github.com/merch/byom/internal/domain/shared"
	"go.uber.org/zap"
)

// DesignDecisionHandler tells design owners about review decisions
type DesignDecisionHandler struct {
	logger   *zap.Logger
	notifier OwnerNotifier
}

// OwnerNotifier delivers review decisions to design owners
type OwnerNotifier interface {
	NotifyDecision(ctx context.Context, notification DecisionNotification) error
}

// DecisionNotification is a review decision addressed to a design owner
type DecisionNotification struct {
	DesignID   string `json:"design_id"`
	OwnerID    string `json:"owner_id"`
	OwnerEmail string `json:"owner_email"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// NewDesignDecisionHandler creates a new handler for review decisions
func NewDesignDecisionHandler(logger *zap.Logger) *DesignDecisionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DesignDecisionHandler{logger: logger}
}

// WithNotifier sets the notifier for owner notifications
func (h *DesignDecisionHandler) WithNotifier(notifier OwnerNotifier) *DesignDecisionHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *DesignDecisionHandler) EventTypes() []string {
	return []string{byom.EventTypeDesignApproved, byom.EventTypeDesignRejected}
}

// Handle processes DesignApprovedEvent and DesignRejectedEvent
func (h *DesignDecisionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var n DecisionNotification
	switch e := event.(type) {
	case *byom.DesignApprovedEvent:
		n = DecisionNotification{
			DesignID:   e.DesignID.String(),
			OwnerID:    e.OwnerID.String(),
			OwnerEmail: e.OwnerEmail,
			Status:     byom.DesignStatusApproved.String(),
		}
	case *byom.DesignRejectedEvent:
		n = DecisionNotification{
			DesignID:   e.DesignID.String(),
			OwnerID:    e.OwnerID.String(),
			OwnerEmail: e.OwnerEmail,
			Status:     byom.DesignStatusRejected.String(),
			Reason:     e.Reason,
		}
		h.logger.Info("design rejected",
			zap.String("design_id", n.DesignID),
			zap.String("reviewer_id", event.ActorID().String()),
			zap.String("reason", n.Reason),
		)
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	if h.notifier == nil {
		return nil
	}
	if err := h.notifier.NotifyDecision(ctx, n); err != nil {
		h.logger.Error("failed to send decision notification",
			zap.String("design_id", n.DesignID),
			zap.Error(err),
		)
		return nil
	}
	h.logger.Debug("decision notification sent",
		zap.String("design_id", n.DesignID),
		zap.String("status", n.Status),
	)
	return nil
}

var _ shared.EventHandler = (*DesignDecisionHandler)(nil)

// LoggingOwnerNotifier logs notifications instead of delivering them
type LoggingOwnerNotifier struct {
	logger *zap.Logger
}

// NewLoggingOwnerNotifier creates a new logging notifier
func NewLoggingOwnerNotifier(logger *zap.Logger) *LoggingOwnerNotifier {
	return &LoggingOwnerNotifier{logger: logger}
}

// NotifyDecision logs the notification
func (n *LoggingOwnerNotifier) NotifyDecision(ctx context.Context, notification DecisionNotification) error {
	n.logger.Info("DESIGN REVIEWED",
		zap.String("design_id", notification.DesignID),
		zap.String("owner_email", notification.OwnerEmail),
		zap.String("status", notification.Status),
		zap.String("reason", notification.Reason),
	)
	return nil
}

var _ OwnerNotifier = (*LoggingOwnerNotifier)(nil)

// ReviewQueueHandler logs designs entering review and pricing policy changes
type ReviewQueueHandler struct {
	logger *zap.Logger
}

// NewReviewQueueHandler creates a new ReviewQueueHandler
func NewReviewQueueHandler(logger *zap.Logger) *ReviewQueueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewQueueHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ReviewQueueHandler) EventTypes() []string {
	return []string{
		byom.EventTypeDesignSubmitted,
		byom.EventTypePricingPolicyCreated,
		byom.EventTypePricingPolicyUpdated,
	}
}

// Handle logs the event with its business payload
func (h *ReviewQueueHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *byom.DesignSubmittedEvent:
		h.logger.Info("design awaiting review",
			zap.String("design_id", e.DesignID.String()),
			zap.String("owner_email", e.OwnerEmail),
			zap.String("total", e.Total.String()),
		)
	case *byom.PricingPolicyChangedEvent:
		h.logger.Info("pricing policy changed",
			zap.String("event_type", e.EventType()),
			zap.String("policy_id", e.PolicyID.String()),
			zap.Bool("is_active", e.IsActive),
			zap.Int("priority", e.Priority),
		)
	default:
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*ReviewQueueHandler)(nil)
