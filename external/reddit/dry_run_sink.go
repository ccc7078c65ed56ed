package reddit

import (
	"context"

	"github.com/riskibarqy/matchthread-sync/internal/platform/id"
	"github.com/riskibarqy/matchthread-sync/internal/platform/logging"
)

// DryRunSink logs what would be posted and never calls reddit.
type DryRunSink struct {
	ids    id.Generator
	logger *logging.Logger
}

func NewDryRunSink(ids id.Generator, logger *logging.Logger) *DryRunSink {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &DryRunSink{ids: ids, logger: logger.Named("reddit.dry_run")}
}

func (s *DryRunSink) Submit(ctx context.Context, title, body string) (string, error) {
	postID, err := s.ids.NewID()
	if err != nil {
		return "", err
	}
	postID = "dryrun-" + postID
	s.logger.InfoContext(ctx, "dry run: submit post", "post_id", postID, "title", title, "body_bytes", len(body))
	s.logger.DebugContext(ctx, "dry run: post body", "body", body)
	return postID, nil
}

func (s *DryRunSink) Update(ctx context.Context, postID, body string) (bool, error) {
	s.logger.InfoContext(ctx, "dry run: update post", "post_id", postID, "body_bytes", len(body))
	s.logger.DebugContext(ctx, "dry run: post body", "body", body)
	return true, nil
}
