package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/pkg/timeutil"
)

type expiredOtpDeleter interface {
	DeleteExpired(ctx context.Context, now int64) (int64, error)
}

type OtpCleanupJob struct {
	registration expiredOtpDeleter
	login        expiredOtpDeleter
}

func NewOtpCleanupJob(registration, login expiredOtpDeleter) *OtpCleanupJob {
	return &OtpCleanupJob{registration: registration, login: login}
}

func (j *OtpCleanupJob) Name() string {
	return "otp_cleanup"
}

func (j *OtpCleanupJob) Run(ctx context.Context) error {
	now := timeutil.NowUnix()
	var total int64
	if j.registration != nil {
		removed, err := j.registration.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		total += removed
	}
	if j.login != nil {
		removed, err := j.login.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		total += removed
	}
	if total > 0 {
		logutil.GetLogger(ctx).Info("expired otps removed", zap.Int64("count", total))
	}
	return nil
}
