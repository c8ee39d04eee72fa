package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anonto42/skillpath/friend-service/internal/models"
	"github.com/anonto42/skillpath/friend-service/internal/repositories"
	"github.com/anonto42/skillpath/friend-service/pkg/apperror"
	"go.uber.org/zap"
)

// SyncUserInput is a partial profile for SyncUser. A nil field leaves the stored value
// untouched. An empty Avatar clears it.
type SyncUserInput struct {
	ExternalID string
	Email      *string
	FullName   *string
	Username   *string
	Avatar     *string
}

// DirectoryService keeps the local shadow of externally owned user identities.
type DirectoryService interface {
	SyncUser(ctx context.Context, in SyncUserInput) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	DeleteUserAndRelations(ctx context.Context, externalID string) error
	PruneOrphanUsers(ctx context.Context, validIDs []string) (int, error)
}

type directoryService struct {
	store   *repositories.Store
	journal journal
	log     *zap.Logger
}

// NewDirectoryService creates a DirectoryService over store
func NewDirectoryService(store *repositories.Store, activities repositories.ActivityRepository, log *zap.Logger) DirectoryService {
	return &directoryService{
		store:   store,
		journal: journal{repo: activities, log: log},
		log:     log,
	}
}

func avatarValue(avatar *string) *string {
	if avatar == nil || *avatar == "" {
		return nil
	}
	v := *avatar
	return &v
}

// SyncUser creates the shadow user on first sight and patches it afterwards.
func (s *directoryService) SyncUser(ctx context.Context, in SyncUserInput) (*models.User, error) {
	if in.ExternalID == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "user id is required")
	}
	if in.Username != nil && strings.TrimSpace(*in.Username) == "" {
		return nil, apperror.New(apperror.ErrInvalidArgument, "username cannot be empty")
	}

	var synced *models.User
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		existing, err := tx.Users.GetUserByExternalID(ctx, in.ExternalID)
		if errors.Is(err, repositories.ErrNotFound) {
			if in.Username == nil {
				return apperror.New(apperror.ErrInvalidArgument, "username is required")
			}
			user := &models.User{
				ExternalID: in.ExternalID,
				Username:   *in.Username,
				Avatar:     avatarValue(in.Avatar),
			}
			if in.Email != nil {
				user.Email = *in.Email
			}
			if in.FullName != nil {
				user.FullName = *in.FullName
			}
			if err := tx.Users.CreateUser(ctx, user); err != nil {
				if errors.Is(err, repositories.ErrDuplicate) {
					return apperror.New(apperror.ErrConflict, "user is already being synced")
				}
				return err
			}
			synced = user
			return nil
		}
		if err != nil {
			return err
		}

		fields := map[string]any{}
		if in.Email != nil {
			fields["email"] = *in.Email
		}
		if in.FullName != nil {
			fields["full_name"] = *in.FullName
		}
		if in.Username != nil {
			fields["username"] = *in.Username
		}
		if in.Avatar != nil {
			fields["avatar"] = avatarValue(in.Avatar)
		}
		if err := tx.Users.UpdateUserFields(ctx, existing.ID, fields); err != nil {
			return err
		}
		synced, err = tx.Users.GetUserByExternalID(ctx, in.ExternalID)
		return err
	})
	if err != nil {
		return nil, wrapStoreErr("sync user", err)
	}
	return synced, nil
}

func (s *directoryService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users.GetUsers(ctx)
	if err != nil {
		return nil, wrapStoreErr("list users", err)
	}
	return users, nil
}

// DeleteUserAndRelations removes every friendship, request and block the user takes
// part in, then the shadow row itself, in one transaction. The user's activity journal
// is purged after commit.
func (s *directoryService) DeleteUserAndRelations(ctx context.Context, externalID string) error {
	if externalID == "" {
		return apperror.New(apperror.ErrInvalidArgument, "user id is required")
	}

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Friendships.DeleteFriendships(ctx,
			models.FriendshipMatch{UserID: externalID},
			models.FriendshipMatch{FriendID: externalID},
		); err != nil {
			return err
		}
		if _, err := tx.Friendships.DeleteFriendRequests(ctx,
			models.FriendRequestMatch{SenderID: externalID},
			models.FriendRequestMatch{ReceiverID: externalID},
		); err != nil {
			return err
		}
		if _, err := tx.Blocks.DeleteBlocks(ctx,
			models.BlockMatch{BlockerID: externalID},
			models.BlockMatch{BlockedID: externalID},
		); err != nil {
			return err
		}
		_, err := tx.Users.DeleteUserByExternalID(ctx, externalID)
		return err
	})
	if err != nil {
		return wrapStoreErr("delete user", err)
	}

	s.journal.purge(ctx, externalID)
	return nil
}

// PruneOrphanUsers deletes, one by one, every shadow user whose id is not in validIDs
// and returns how many were removed. A nil set is rejected; an empty set prunes all.
func (s *directoryService) PruneOrphanUsers(ctx context.Context, validIDs []string) (int, error) {
	if validIDs == nil {
		return 0, apperror.New(apperror.ErrInvalidArgument, "validUserIds is required")
	}

	valid := make(map[string]struct{}, len(validIDs))
	for _, id := range validIDs {
		valid[models.CanonicalExternalID(id)] = struct{}{}
	}

	ids, err := s.store.Users.ListExternalIDs(ctx)
	if err != nil {
		return 0, wrapStoreErr("prune orphan users", err)
	}

	deleted := 0
	for _, id := range ids {
		if _, ok := valid[models.CanonicalExternalID(id)]; ok {
			continue
		}
		if err := s.DeleteUserAndRelations(ctx, id); err != nil {
			return deleted, err
		}
		deleted++
	}

	s.log.Info("orphan users pruned", zap.Int("deleted", deleted), zap.Int("valid", len(valid)))
	return deleted, nil
}
