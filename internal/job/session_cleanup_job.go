package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/service"
)

type SessionCleanupJob struct {
	sessions *service.SessionService
}

func NewSessionCleanupJob(sessions *service.SessionService) *SessionCleanupJob {
	return &SessionCleanupJob{sessions: sessions}
}

func (j *SessionCleanupJob) Name() string {
	return "session_cleanup"
}

func (j *SessionCleanupJob) Run(ctx context.Context) error {
	if j.sessions == nil {
		return nil
	}
	removed, err := j.sessions.DeleteExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("expired sessions removed", zap.Int64("count", removed))
	}
	return nil
}
