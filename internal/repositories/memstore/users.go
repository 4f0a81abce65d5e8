package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"github.com/anonto42/nano-feed/backend/internal/repositories"
	"github.com/google/uuid"
)

var _ repositories.UserRepository = (*Store)(nil)

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	return s.write(ctx, func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
				return repositories.ErrDuplicateUser
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if _, ok := st.users[user.ID]; ok {
			return repositories.ErrDuplicateUser
		}
		user.CreatedAt = now()
		user.UpdatedAt = user.CreatedAt
		st.users[user.ID] = cloneUser(user)
		return nil
	})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, func(u *models.User) bool { return u.ID == id })
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	if firebaseUID == "" {
		return nil, repositories.ErrUserNotFound
	}
	return s.findUser(ctx, func(u *models.User) bool { return u.FirebaseUID == firebaseUID })
}

func (s *Store) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	users := []models.User{}
	err := s.read(ctx, func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok {
				users = append(users, *cloneUser(u))
			}
		}
		return nil
	})
	return users, err
}

func (s *Store) AddToSet(ctx context.Context, userID string, set repositories.UserSet, value string) (bool, error) {
	var added bool
	err := s.write(ctx, func(st *state) error {
		field, err := userSet(st, userID, set)
		if err != nil {
			return err
		}
		if slices.Contains(*field, value) {
			return nil
		}
		*field = append(*field, value)
		st.users[userID].UpdatedAt = now()
		added = true
		return nil
	})
	return added, err
}

func (s *Store) RemoveFromSet(ctx context.Context, userID string, set repositories.UserSet, value string) (bool, error) {
	var removed bool
	err := s.write(ctx, func(st *state) error {
		field, err := userSet(st, userID, set)
		if err != nil {
			return err
		}
		i := slices.Index(*field, value)
		if i < 0 {
			return nil
		}
		*field = slices.Delete(*field, i, i+1)
		st.users[userID].UpdatedAt = now()
		removed = true
		return nil
	})
	return removed, err
}

func (s *Store) findUser(ctx context.Context, match func(*models.User) bool) (*models.User, error) {
	var found *models.User
	err := s.read(ctx, func(st *state) error {
		for _, u := range st.users {
			if match(u) {
				found = cloneUser(u)
				return nil
			}
		}
		return repositories.ErrUserNotFound
	})
	return found, err
}

func userSet(st *state, userID string, set repositories.UserSet) (*[]string, error) {
	u, ok := st.users[userID]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	switch set {
	case repositories.SetFollowing:
		return &u.Following, nil
	case repositories.SetFollowers:
		return &u.Followers, nil
	case repositories.SetSaves:
		return &u.Saves, nil
	case repositories.SetPosts:
		return &u.Posts, nil
	}
	return nil, fmt.Errorf("memstore: unknown user set %q", set)
}
