package device

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kitabiapp/kitabi/core"
)

var ErrNotFound = errors.New("device not found")

type (
	Repository interface {
		// UpsertDevice inserts the device or, if (userID, fingerprint)
		// already exists, refreshes its LastSeen.
		UpsertDevice(ctx context.Context, dev Device, exec ...core.DBExecutor) (Device, error)
		GetDeviceByFingerprint(ctx context.Context, userID, fingerprint string, exec ...core.DBExecutor) (Device, error)
		QueryUserDevices(ctx context.Context, userID string, exec ...core.DBExecutor) ([]Device, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register fingerprints sig and records the device for userID.
func (svc *Service) Register(ctx context.Context, userID string, sig Signals) (Device, error) {
	id := Generate(sig)
	now := time.Now().UTC()
	dev := Device{
		UserID:      userID,
		Fingerprint: id.Hash,
		Platform:    id.Info.Platform,
		Timezone:    id.Info.Timezone,
		FirstSeen:   now,
		LastSeen:    now,
	}
	return svc.repo.UpsertDevice(ctx, dev)
}

func (svc *Service) GetByFingerprint(ctx context.Context, userID, fingerprint string) (Device, error) {
	return svc.repo.GetDeviceByFingerprint(ctx, userID, fingerprint)
}

func (svc *Service) ForUser(ctx context.Context, userID string) ([]Device, error) {
	return svc.repo.QueryUserDevices(ctx, userID)
}
