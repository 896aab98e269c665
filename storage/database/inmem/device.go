package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/device"
)

type deviceRepository struct {
	db *deviceTable
}

var _ device.Repository = (*deviceRepository)(nil)

func NewDeviceRepository(db *DB) *deviceRepository {
	return &deviceRepository{db: db.device}
}

func (repo *deviceRepository) UpsertDevice(_ context.Context, dev device.Device, _ ...core.DBExecutor) (device.Device, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, d := range repo.db.table {
		if d.UserID == dev.UserID && d.Fingerprint == dev.Fingerprint {
			d.LastSeen = dev.LastSeen
			return *d, nil
		}
	}
	dev.ID = uuid.New().String()
	repo.db.table[dev.ID] = &dev
	return dev, nil
}

func (repo *deviceRepository) GetDeviceByFingerprint(_ context.Context, userID, fingerprint string, _ ...core.DBExecutor) (device.Device, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, d := range repo.db.table {
		if d.UserID == userID && d.Fingerprint == fingerprint {
			return *d, nil
		}
	}
	return device.Device{}, device.ErrNotFound
}

func (repo *deviceRepository) QueryUserDevices(_ context.Context, userID string, _ ...core.DBExecutor) ([]device.Device, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	devices := make([]device.Device, 0)
	for _, d := range repo.db.table {
		if d.UserID == userID {
			devices = append(devices, *d)
		}
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].LastSeen.After(devices[j].LastSeen) })
	return devices, nil
}
