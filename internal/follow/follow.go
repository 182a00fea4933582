// Package follow manages follow edges between users.
package follow

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yatube-net/yatube/internal/entities"
	"github.com/yatube-net/yatube/internal/policy"
	"github.com/yatube-net/yatube/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "follow")

// Manager creates and removes follow edges.
type Manager struct {
	s storage.Storage
}

// New creates new instance of Manager.
func New(s storage.Storage) *Manager {
	return &Manager{s: s}
}

// Follow makes actor follow author. Following oneself or an already followed author is a no-op.
func (m *Manager) Follow(ctx context.Context, a entities.Actor, author string) error {
	if err := policy.Authenticated(a).Err(); err != nil {
		return err
	}

	if _, err := m.s.GetUser(ctx, author); err != nil {
		return fmt.Errorf("failed to get author: %w", err)
	}

	if !policy.CanFollow(a, author) {
		log.WithField("user", a.Username).Debug("skip self follow")
		return nil
	}

	if err := m.s.Follow(ctx, a.Username, author); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	return nil
}

// Unfollow removes the edge from actor to author. It returns storage.ErrNotFound if there is no such edge.
func (m *Manager) Unfollow(ctx context.Context, a entities.Actor, author string) error {
	if err := policy.Authenticated(a).Err(); err != nil {
		return err
	}

	if _, err := m.s.GetUser(ctx, author); err != nil {
		return fmt.Errorf("failed to get author: %w", err)
	}

	if err := m.s.Unfollow(ctx, a.Username, author); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	return nil
}

// IsFollowing returns true if actor is authenticated and follows author.
func (m *Manager) IsFollowing(ctx context.Context, a entities.Actor, author string) (bool, error) {
	if !a.IsAuthenticated() {
		return false, nil
	}

	ok, err := m.s.IsFollowing(ctx, a.Username, author)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}

	return ok, nil
}
