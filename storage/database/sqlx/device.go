package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/kitabiapp/kitabi/core"
	"github.com/kitabiapp/kitabi/core/device"
)

type deviceRepository struct {
	repository
}

var _ device.Repository = (*deviceRepository)(nil) // interface compliance check

func NewDeviceRepository(exec core.DBExecutor) *deviceRepository {
	return &deviceRepository{repository{exec: exec}}
}

type deviceRow struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	Fingerprint string      `db:"fingerprint"`
	Platform    null.String `db:"platform"`
	Timezone    null.String `db:"timezone"`
	FirstSeen   null.Time   `db:"first_seen"`
	LastSeen    null.Time   `db:"last_seen"`
}

func (r deviceRow) toDevice() device.Device {
	return device.Device{
		ID:          r.ID,
		UserID:      r.UserID,
		Fingerprint: r.Fingerprint,
		Platform:    r.Platform.String,
		Timezone:    r.Timezone.String,
		FirstSeen:   r.FirstSeen.Time,
		LastSeen:    r.LastSeen.Time,
	}
}

const deviceColumns = `id, user_id, fingerprint, platform, timezone, first_seen, last_seen`

func (repo deviceRepository) UpsertDevice(ctx context.Context, dev device.Device, exec ...core.DBExecutor) (device.Device, error) {
	dev.ID = uuid.New().String()
	var row deviceRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`INSERT INTO device (`+deviceColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, fingerprint)
		 DO UPDATE SET last_seen = EXCLUDED.last_seen
		 RETURNING `+deviceColumns,
		dev.ID, dev.UserID, dev.Fingerprint,
		null.NewString(dev.Platform, dev.Platform != ""),
		null.NewString(dev.Timezone, dev.Timezone != ""),
		dev.FirstSeen.UTC(), dev.LastSeen.UTC(),
	)
	if err != nil {
		return device.Device{}, errors.Wrap(err, "upserting device")
	}
	return row.toDevice(), nil
}

func (repo deviceRepository) GetDeviceByFingerprint(ctx context.Context, userID, fingerprint string, exec ...core.DBExecutor) (device.Device, error) {
	var row deviceRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		`SELECT `+deviceColumns+` FROM device WHERE user_id = $1 AND fingerprint = $2`,
		userID, fingerprint,
	)
	if err != nil {
		return device.Device{}, trapNoRowsErr(err, device.ErrNotFound, "getting device")
	}
	return row.toDevice(), nil
}

func (repo deviceRepository) QueryUserDevices(ctx context.Context, userID string, exec ...core.DBExecutor) ([]device.Device, error) {
	var rows []deviceRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		`SELECT `+deviceColumns+` FROM device WHERE user_id = $1 ORDER BY last_seen DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying devices")
	}
	devices := make([]device.Device, 0, len(rows))
	for _, r := range rows {
		devices = append(devices, r.toDevice())
	}
	return devices, nil
}
