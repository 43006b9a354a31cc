package devices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sim-device-platform/core/audit"
	"sim-device-platform/core/entity"
	"sim-device-platform/core/provider"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service implements the unified device view and the explicit linking
// operations on the two link tables.
type Service struct {
	db          *gorm.DB
	logger      *zap.Logger
	audit       audit.Recorder
	simPlatform provider.SimPlatform
}

// NewService creates a new devices service. simPlatform may be nil when no
// SIM-platform provider is registered; SIM metadata updates then stay local.
func NewService(db *gorm.DB, logger *zap.Logger, recorder audit.Recorder, simPlatform provider.SimPlatform) *Service {
	return &Service{
		db:          db,
		logger:      logger,
		audit:       recorder,
		simPlatform: simPlatform,
	}
}

// LinkDeviceToSim creates or refreshes the (deviceId, iccid) link.
// On an existing row, confidence and source are overwritten and
// last_seen_at advances while first_seen_at is preserved. The returned
// bool reports whether a new row was created. Referential integrity is
// enforced by the store: linking unknown ids fails with an error.
func (s *Service) LinkDeviceToSim(ctx context.Context, deviceID, iccid string, source entity.LinkSource, confidence float64) (bool, error) {
	now := time.Now().UTC()
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link entity.DeviceSimLink
		err := tx.Where("device_id = ? AND iccid = ?", deviceID, iccid).First(&link).Error
		switch {
		case err == nil:
			link.Confidence = confidence
			link.Source = source
			link.LastSeenAt = now
			return tx.Save(&link).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			link = entity.DeviceSimLink{
				DeviceID:    deviceID,
				Iccid:       iccid,
				Confidence:  confidence,
				Source:      source,
				FirstSeenAt: now,
				LastSeenAt:  now,
			}
			return tx.Create(&link).Error
		default:
			return err
		}
	})
	if err != nil {
		s.logger.Error("Failed to link device to SIM",
			zap.String("device_id", deviceID), zap.String("iccid", iccid), zap.Error(err))
		return false, fmt.Errorf("link device %s to sim %s: %w", deviceID, iccid, err)
	}

	s.audit.LogEvent(ctx, "link_device_sim", "device", deviceID, map[string]any{
		"iccid":      iccid,
		"source":     source,
		"confidence": confidence,
		"action":     linkAction(created),
	})
	return created, nil
}

// LinkAssetToDevice creates or refreshes the (assetId, deviceId) link,
// symmetric to LinkDeviceToSim with match_basis instead of
// confidence/source.
func (s *Service) LinkAssetToDevice(ctx context.Context, assetID, deviceID string, basis entity.MatchBasis) (bool, error) {
	now := time.Now().UTC()
	created := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link entity.AssetDeviceLink
		err := tx.Where("asset_id = ? AND device_id = ?", assetID, deviceID).First(&link).Error
		switch {
		case err == nil:
			link.MatchBasis = basis
			link.LastSeenAt = now
			return tx.Save(&link).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			link = entity.AssetDeviceLink{
				AssetID:     assetID,
				DeviceID:    deviceID,
				MatchBasis:  basis,
				FirstSeenAt: now,
				LastSeenAt:  now,
			}
			return tx.Create(&link).Error
		default:
			return err
		}
	})
	if err != nil {
		s.logger.Error("Failed to link asset to device",
			zap.String("asset_id", assetID), zap.String("device_id", deviceID), zap.Error(err))
		return false, fmt.Errorf("link asset %s to device %s: %w", assetID, deviceID, err)
	}

	s.audit.LogEvent(ctx, "link_asset_device", "device", deviceID, map[string]any{
		"assetId": assetID,
		"basis":   basis,
		"action":  linkAction(created),
	})
	return created, nil
}

// UnlinkDeviceFromSim deletes the (deviceId, iccid) link if present.
// A missing row is benign: (false, nil). The audit event is only emitted
// on an actual deletion.
func (s *Service) UnlinkDeviceFromSim(ctx context.Context, deviceID, iccid string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("device_id = ? AND iccid = ?", deviceID, iccid).
		Delete(&entity.DeviceSimLink{})
	if res.Error != nil {
		s.logger.Error("Failed to unlink device from SIM",
			zap.String("device_id", deviceID), zap.String("iccid", iccid), zap.Error(res.Error))
		return false, fmt.Errorf("unlink device %s from sim %s: %w", deviceID, iccid, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	s.audit.LogEvent(ctx, "unlink_device_sim", "device", deviceID, map[string]any{
		"iccid": iccid,
	})
	return true, nil
}

// UnlinkAssetFromDevice deletes the (assetId, deviceId) link if present.
func (s *Service) UnlinkAssetFromDevice(ctx context.Context, assetID, deviceID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("asset_id = ? AND device_id = ?", assetID, deviceID).
		Delete(&entity.AssetDeviceLink{})
	if res.Error != nil {
		s.logger.Error("Failed to unlink asset from device",
			zap.String("asset_id", assetID), zap.String("device_id", deviceID), zap.Error(res.Error))
		return false, fmt.Errorf("unlink asset %s from device %s: %w", assetID, deviceID, res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	s.audit.LogEvent(ctx, "unlink_asset_device", "device", deviceID, map[string]any{
		"assetId": assetID,
	})
	return true, nil
}

// SimMetadataUpdate carries the updatable SIM fields. Nil fields are left
// unchanged.
type SimMetadataUpdate struct {
	Description *string  `json:"description"`
	Tags        []string `json:"tags"`
}

// UpdateSimMetadata updates a SIM's description and/or tags locally and
// pushes the change to the SIM-platform provider when one is registered.
// The local update commits first; an upstream push failure is returned so
// the caller knows the platforms have diverged.
func (s *Service) UpdateSimMetadata(ctx context.Context, iccid string, update SimMetadataUpdate) error {
	var sim entity.Sim
	if err := s.db.WithContext(ctx).First(&sim, "iccid = ?", iccid).Error; err != nil {
		return fmt.Errorf("sim %s: %w", iccid, err)
	}

	if update.Description != nil {
		sim.Description = *update.Description
	}
	if update.Tags != nil {
		sim.Tags = entity.StringList(update.Tags)
	}
	sim.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&sim).Error; err != nil {
		return fmt.Errorf("update sim %s: %w", iccid, err)
	}

	s.audit.LogEvent(ctx, "update_sim_metadata", "sim", iccid, update)

	if s.simPlatform == nil {
		return nil
	}
	if update.Description != nil {
		if err := s.simPlatform.UpdateSimDescription(ctx, iccid, *update.Description); err != nil {
			return fmt.Errorf("push description for sim %s upstream: %w", iccid, err)
		}
	}
	if update.Tags != nil {
		if err := s.simPlatform.UpdateSimTags(ctx, iccid, update.Tags); err != nil {
			return fmt.Errorf("push tags for sim %s upstream: %w", iccid, err)
		}
	}
	return nil
}

func linkAction(created bool) string {
	if created {
		return "created"
	}
	return "updated"
}
