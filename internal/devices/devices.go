package devices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"companion/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const registryKey = "devices:all"

// Service issues device ids and keeps the device registry the scheduler
// enumerates on each tick. Each device id namespaces its own preference
// keys.
type Service struct {
	backend store.Backend
	logger  *logrus.Logger
}

func NewService(backend store.Backend, logger *logrus.Logger) *Service {
	return &Service{backend: backend, logger: logger}
}

// Register issues a fresh device id and records it.
func (s *Service) Register(ctx context.Context) (string, error) {
	id := uuid.NewString()

	ids, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	ids = append(ids, id)

	if err := s.save(ctx, ids); err != nil {
		return "", err
	}

	s.logger.WithField("device", id).Info("Device registered")
	return id, nil
}

// All lists registered device ids in sorted order.
func (s *Service) All(ctx context.Context) ([]string, error) {
	ids, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Service) load(ctx context.Context) ([]string, error) {
	raw, err := s.backend.Get(ctx, registryKey)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read device registry: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		s.logger.WithError(err).Warn("Corrupt device registry, starting over")
		return nil, nil
	}
	return ids, nil
}

func (s *Service) save(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode device registry: %w", err)
	}
	if err := s.backend.Set(ctx, registryKey, string(raw)); err != nil {
		return fmt.Errorf("failed to persist device registry: %w", err)
	}
	return nil
}
