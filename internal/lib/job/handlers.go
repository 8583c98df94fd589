package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// InitHandlers supplies the dependencies the task handlers need.
func (j *JobService) InitHandlers(refresher SmileyRefresher) {
	j.refresher = refresher
}

func (j *JobService) handleSmileyRefresh(ctx context.Context, t *asynq.Task) error {
	j.logger.Info().Str("type", t.Type()).Msg("refreshing smiley cache")

	n, err := j.refresher.RefreshSmileys(ctx)
	if err != nil {
		j.logger.Error().Str("type", t.Type()).Err(err).Msg("smiley refresh failed")
		return fmt.Errorf("refresh smileys: %w", err)
	}

	j.logger.Info().Str("type", t.Type()).Int("count", n).Msg("smiley cache refreshed")
	return nil
}
