package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/repositories"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"go.uber.org/zap"
)

// journal appends committed events to the activity repository. Failures are logged and
// swallowed: the relational change has already been committed.
type journal struct {
	repo repositories.ActivityRepository
	log  *zap.Logger
}

func (j journal) record(ctx context.Context, typ models.ActivityType, actorID, targetID, requestID string) {
	err := j.repo.Record(ctx, &models.Activity{
		Type:      typ,
		ActorID:   actorID,
		TargetID:  targetID,
		RequestID: requestID,
	})
	if err != nil {
		j.log.Warn("failed to record activity",
			zap.String("type", string(typ)),
			zap.String("actor_id", actorID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
	}
}

// purge drops the user's journal entries once their relations are gone.
func (j journal) purge(ctx context.Context, userID string) {
	deleted, err := j.repo.DeleteByUser(ctx, userID)
	if err != nil {
		j.log.Warn("failed to purge activity", zap.String("user_id", userID), zap.Error(err))
		return
	}
	j.log.Debug("activity purged", zap.String("user_id", userID), zap.Int64("deleted", deleted))
}

// wrapStoreErr passes domain errors through and annotates everything else.
func wrapStoreErr(op string, err error) error {
	if err == nil || apperror.IsDomain(err) {
		return err
	}
	if errors.Is(err, models.ErrSelfRelation) {
		return apperror.New(apperror.ErrInvalidOperation, "%s", err.Error())
	}
	return fmt.Errorf("%s: %w", op, err)
}
