package service

import (
	"context"
	"log/slog"

	"github.com/campusvoice/hub/internal/repository"
)

// LogNotifier records completed merges to the structured log. It stands in
// for outbound channels (email, in-app) that live outside this service.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs merge outcomes.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}

	return &LogNotifier{logger: logger}
}

// NotifyMerged logs the merge so submitters of the duplicate record can be
// followed up with.
func (n *LogNotifier) NotifyMerged(ctx context.Context, result *repository.MergeResult) {
	n.logger.InfoContext(ctx, "feedback record merged",
		"duplicateId", result.Duplicate.ID,
		"originalId", result.Original.ID,
		"votesMoved", result.VotesMoved,
		"responsesMoved", result.ResponsesMoved,
	)
}
