package obs

import (
	"context"
	"street-screens-service/internal/platform/logging"
	"street-screens-service/internal/platform/metrics"
	"time"
)

// Time starts a timer for op; call the returned func (usually deferred) with a
// pointer to the named error result to log and record the outcome.
//
//	defer obs.Time(ctx, "create screen")(&err)
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)

		var err error
		if errp != nil {
			err = *errp
		}
		metrics.RecordOperation(op, err, dur)

		l := logging.Ctx(ctx)
		if err != nil {
			l.Warn().Str("op", op).Dur("dur", dur).Err(err).Msg("operation failed")
			return
		}
		l.Debug().Str("op", op).Dur("dur", dur).Msg("operation done")
	}
}
