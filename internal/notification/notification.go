package notification

import (
	"context"
	"log/slog"
)

const (
	// KindAccountProvisioned indicates a fresh smart account deployment.
	KindAccountProvisioned = "account_provisioned"
	// KindVoteCast indicates a confirmed vote operation.
	KindVoteCast = "vote_cast"
	// KindCandidateAdded indicates a confirmed candidate registration.
	KindCandidateAdded = "candidate_added"
	// KindElectionCreated indicates a confirmed election creation.
	KindElectionCreated = "election_created"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the
// logger. The mail delivery pipeline lives outside this service.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "destination", message.Destination, "body", message.Body)
	return nil
}
