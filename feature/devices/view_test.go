package devices_test

import (
	"context"
	"fmt"
	"testing"

	"sim-device-platform/core/entity"
	"sim-device-platform/feature/devices"

	"github.com/stretchr/testify/assert"
)

func TestUnifiedViewJoins(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seedDevice(t, db, "dev-1")
	seedSim(t, db, "8944")
	seedAsset(t, db, "asset-1", "Trailer 42")

	_, err := svc.LinkDeviceToSim(ctx, "dev-1", "8944", entity.LinkSourceIccid, 1.0)
	assert.NoError(t, err)
	_, err = svc.LinkAssetToDevice(ctx, "asset-1", "dev-1", entity.MatchBasisManual)
	assert.NoError(t, err)

	// Unlinked device still appears with empty SIM and asset columns.
	seedDevice(t, db, "dev-2")

	result, err := svc.UnifiedView(ctx, devices.Filter{})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	assert.Len(t, result.Devices, 2)

	linked := result.Devices[0]
	assert.Equal(t, "dev-1", linked.DeviceID)
	assert.Equal(t, "8944", linked.Iccid)
	assert.Equal(t, "asset-1", linked.AssetID)
	assert.Equal(t, "Trailer 42", linked.AssetName)
	assert.NotNil(t, linked.Confidence)
	assert.Equal(t, 1.0, *linked.Confidence)

	bare := result.Devices[1]
	assert.Equal(t, "dev-2", bare.DeviceID)
	assert.Empty(t, bare.Iccid)
	assert.Empty(t, bare.AssetID)
	assert.Nil(t, bare.MatchBasis)
}

func TestUnifiedViewFanOut(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seedDevice(t, db, "dev-1")
	seedSim(t, db, "8944-b")
	seedSim(t, db, "8944-a")

	_, err := svc.LinkDeviceToSim(ctx, "dev-1", "8944-b", entity.LinkSourceIccid, 1.0)
	assert.NoError(t, err)
	_, err = svc.LinkDeviceToSim(ctx, "dev-1", "8944-a", entity.LinkSourceImei, 0.8)
	assert.NoError(t, err)

	result, err := svc.UnifiedView(ctx, devices.Filter{})
	assert.NoError(t, err)

	// Two SIM links fan out to two rows, ordered by iccid.
	assert.Len(t, result.Devices, 2)
	assert.Equal(t, "8944-a", result.Devices[0].Iccid)
	assert.Equal(t, "8944-b", result.Devices[1].Iccid)
}

func TestUnifiedViewFilters(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, db.Create(&entity.Device{
		DeviceID: "tel-1", Oem: entity.OemTeltonika, Status: entity.DeviceStatusActive, Account: "acme",
	}).Error)
	assert.NoError(t, db.Create(&entity.Device{
		DeviceID: "tel-2", Oem: entity.OemTeltonika, Status: entity.DeviceStatusInactive, Account: "acme",
	}).Error)
	assert.NoError(t, db.Create(&entity.Device{
		DeviceID: "dm-1", Oem: entity.OemDigitalMatter, Status: entity.DeviceStatusActive, Account: "globex",
	}).Error)

	seedSim(t, db, "8944")
	_, err := svc.LinkDeviceToSim(ctx, "tel-1", "8944", entity.LinkSourceIccid, 1.0)
	assert.NoError(t, err)

	t.Run("By OEM", func(t *testing.T) {
		result, err := svc.UnifiedView(ctx, devices.Filter{Oem: entity.OemTeltonika})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), result.TotalCount)
	})

	t.Run("By Status", func(t *testing.T) {
		result, err := svc.UnifiedView(ctx, devices.Filter{Status: entity.DeviceStatusInactive})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
		assert.Equal(t, "tel-2", result.Devices[0].DeviceID)
	})

	t.Run("By Account", func(t *testing.T) {
		result, err := svc.UnifiedView(ctx, devices.Filter{Account: "globex"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
		assert.Equal(t, "dm-1", result.Devices[0].DeviceID)
	})

	t.Run("Filters Are Conjunctive", func(t *testing.T) {
		hasSim := true
		result, err := svc.UnifiedView(ctx, devices.Filter{Oem: entity.OemTeltonika, HasSim: &hasSim})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
		assert.Equal(t, "tel-1", result.Devices[0].DeviceID)
	})

	t.Run("Without SIM", func(t *testing.T) {
		hasSim := false
		result, err := svc.UnifiedView(ctx, devices.Filter{HasSim: &hasSim})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), result.TotalCount)
	})

	t.Run("Search Matches Device ID", func(t *testing.T) {
		result, err := svc.UnifiedView(ctx, devices.Filter{Search: "TEL-"})
		assert.NoError(t, err)
		assert.Equal(t, int64(2), result.TotalCount)
	})

	t.Run("Search Matches ICCID", func(t *testing.T) {
		result, err := svc.UnifiedView(ctx, devices.Filter{Search: "8944"})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), result.TotalCount)
		assert.Equal(t, "tel-1", result.Devices[0].DeviceID)
	})
}

func TestUnifiedViewPagination(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		seedDevice(t, db, fmt.Sprintf("dev-%02d", i))
	}

	result, err := svc.UnifiedView(ctx, devices.Filter{Page: 3, PageSize: 10})
	assert.NoError(t, err)
	assert.Equal(t, int64(25), result.TotalCount)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Devices, 5)
	assert.Equal(t, "dev-20", result.Devices[0].DeviceID)

	// Out-of-range page yields an empty page, not an error.
	result, err = svc.UnifiedView(ctx, devices.Filter{Page: 99, PageSize: 10})
	assert.NoError(t, err)
	assert.Empty(t, result.Devices)
	assert.Equal(t, int64(25), result.TotalCount)
}
