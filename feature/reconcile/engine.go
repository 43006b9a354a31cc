package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sim-device-platform/core/entity"
	"sim-device-platform/core/provider"
	"sim-device-platform/feature/devices"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine runs the multi-provider reconciliation: inventory fetch, canonical
// upserts, heartbeat supplement, serial-based asset auto-linking, and the
// store-wide consistency audit.
type Engine struct {
	db       *gorm.DB
	logger   *zap.Logger
	registry *provider.Registry
	links    *devices.Service
}

// NewEngine creates a new reconciliation engine.
func NewEngine(db *gorm.DB, logger *zap.Logger, registry *provider.Registry, links *devices.Service) *Engine {
	return &Engine{
		db:       db,
		logger:   logger,
		registry: registry,
		links:    links,
	}
}

// Run executes one full reconciliation. The returned Result is always
// populated; the error is non-nil only when a stage after the fetch failed,
// mirroring Result.Error. Upserts commit individually, so a mid-run failure
// leaves earlier writes in place (at-least-once, re-running converges).
//
// forceRefresh signals intent to bypass batch caching; ingestion currently
// always re-fetches, so it is logged and otherwise reserved.
func (e *Engine) Run(ctx context.Context, forceRefresh bool) (*Result, error) {
	result := &Result{
		StartedAt: time.Now().UTC(),
		Metrics:   map[string]int64{},
	}

	e.logger.Info("Reconciliation run started", zap.Bool("force_refresh", forceRefresh))

	// Stage 1: inventory fetch. Per-provider failures are absorbed.
	fetches := e.registry.FetchAll(ctx)

	var deviceRecords []provider.DeviceRecord
	var simRecords []provider.SimRecord
	deviceIDsByProvider := make(map[string][]string)

	for _, fr := range fetches {
		result.Metrics["providersQueried"]++
		if fr.Err != nil {
			result.Metrics["providersFailed"]++
			result.Errors = append(result.Errors, fmt.Sprintf("provider %s: %v", fr.Provider, fr.Err))
			e.logger.Warn("Provider inventory fetch failed",
				zap.String("provider", fr.Provider), zap.Error(fr.Err))
			continue
		}
		deviceRecords = append(deviceRecords, fr.Inventory.Devices...)
		simRecords = append(simRecords, fr.Inventory.Sims...)
		for _, d := range fr.Inventory.Devices {
			deviceIDsByProvider[fr.Provider] = append(deviceIDsByProvider[fr.Provider], d.DeviceID)
		}
	}

	// The SIM platform's dedicated inventory supplements the snapshot sims.
	// Its failure is absorbed the same way as a fetch failure.
	if sp := e.registry.SimPlatform(); sp != nil {
		sims, err := sp.FetchSims(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("provider %s: fetch sims: %v", sp.Name(), err))
			e.logger.Warn("SIM platform inventory fetch failed",
				zap.String("provider", sp.Name()), zap.Error(err))
		} else {
			simRecords = append(simRecords, sims...)
		}
	}

	if err := e.process(ctx, result, deviceRecords, simRecords, deviceIDsByProvider); err != nil {
		result.IsSuccess = false
		result.Error = err.Error()
		e.logger.Error("Reconciliation run failed", zap.Error(err))
		return result, err
	}

	now := time.Now().UTC()
	result.CompletedAt = &now
	result.IsSuccess = true
	result.Metrics["durationMs"] = now.Sub(result.StartedAt).Milliseconds()

	e.logger.Info("Reconciliation run completed",
		zap.Int("devices_processed", result.DevicesProcessed),
		zap.Int("sims_processed", result.SimsProcessed),
		zap.Int("new_links", result.NewLinksCreated),
		zap.Int("links_updated", result.LinksUpdated),
		zap.Int("duplicate_iccids", result.DuplicateIccidsFound),
		zap.Int("unmatched_sims", result.UnmatchedSims),
		zap.Int("orphaned_devices", result.OrphanedDevices))

	return result, nil
}

// process runs stages 2-5. Any error returned here fails the run.
func (e *Engine) process(ctx context.Context, result *Result, deviceRecords []provider.DeviceRecord, simRecords []provider.SimRecord, deviceIDsByProvider map[string][]string) error {
	// Stage 2: device upserts, one short transaction per record. Processed
	// counts records seen, not distinct ids.
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rec := range deviceRecords {
		if err := e.upsertDevice(ctx, rec); err != nil {
			return fmt.Errorf("upsert device %s: %w", rec.DeviceID, err)
		}
		result.DevicesProcessed++
	}

	// Stage 3: SIM upserts.
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, rec := range simRecords {
		if err := e.upsertSim(ctx, rec); err != nil {
			return fmt.Errorf("upsert sim %s: %w", rec.Iccid, err)
		}
		result.SimsProcessed++
	}

	// Heartbeat supplement: per provider, pull last-seen timestamps for the
	// device ids it reported this run. Failures are absorbed like fetch
	// failures.
	if err := ctx.Err(); err != nil {
		return err
	}
	e.applyHeartbeats(ctx, result, deviceIDsByProvider)

	// Stage 4: serial-based asset auto-linking, store-wide.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.autoLinkAssets(ctx, result); err != nil {
		return fmt.Errorf("auto-link assets: %w", err)
	}

	// Stage 5: store-wide consistency audit.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := e.auditConsistency(ctx, result); err != nil {
		return fmt.Errorf("consistency audit: %w", err)
	}
	return nil
}

// upsertDevice inserts a new device or overwrites every mutable field of
// an existing one. The reconciliation never deletes devices.
func (e *Engine) upsertDevice(ctx context.Context, rec provider.DeviceRecord) error {
	now := time.Now().UTC()
	status := entity.DeviceStatusInactive
	if rec.IsActive {
		status = entity.DeviceStatusActive
	}

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var device entity.Device
		err := tx.First(&device, "device_id = ?", rec.DeviceID).Error
		switch {
		case err == nil:
			device.Oem = rec.Oem
			device.Model = rec.Model
			device.Imei = rec.Imei
			device.Serial = rec.Serial
			device.Account = rec.Account
			device.Status = status
			device.ActiveTo = rec.ActiveTo
			device.ProviderRef = rec.ProviderRef
			device.LastSyncedAt = now
			device.UpdatedAt = now
			return tx.Save(&device).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			device = entity.Device{
				DeviceID:     rec.DeviceID,
				Oem:          rec.Oem,
				Model:        rec.Model,
				Imei:         rec.Imei,
				Serial:       rec.Serial,
				Account:      rec.Account,
				Status:       status,
				ActiveTo:     rec.ActiveTo,
				ProviderRef:  rec.ProviderRef,
				LastSyncedAt: now,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Create(&device).Error
		default:
			return err
		}
	})
}

func (e *Engine) upsertSim(ctx context.Context, rec provider.SimRecord) error {
	now := time.Now().UTC()

	return e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sim entity.Sim
		err := tx.First(&sim, "iccid = ?", rec.Iccid).Error
		switch {
		case err == nil:
			sim.Msisdn = rec.Msisdn
			sim.Status = rec.Status
			sim.Carrier = rec.Carrier
			sim.AccountID = rec.AccountID
			sim.Description = rec.Description
			sim.Tags = entity.StringList(rec.Tags)
			sim.LastSyncedAt = now
			sim.UpdatedAt = now
			return tx.Save(&sim).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			sim = entity.Sim{
				Iccid:        rec.Iccid,
				Msisdn:       rec.Msisdn,
				Status:       rec.Status,
				Carrier:      rec.Carrier,
				AccountID:    rec.AccountID,
				Description:  rec.Description,
				Tags:         entity.StringList(rec.Tags),
				LastSyncedAt: now,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			return tx.Create(&sim).Error
		default:
			return err
		}
	})
}

func (e *Engine) applyHeartbeats(ctx context.Context, result *Result, deviceIDsByProvider map[string][]string) {
	for _, adapter := range e.registry.Adapters() {
		ids := deviceIDsByProvider[adapter.Name()]
		if len(ids) == 0 {
			continue
		}

		beats, err := adapter.FetchHeartbeats(ctx, ids)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("provider %s: fetch heartbeats: %v", adapter.Name(), err))
			e.logger.Warn("Heartbeat fetch failed",
				zap.String("provider", adapter.Name()), zap.Error(err))
			continue
		}

		for _, hb := range beats {
			err := e.db.WithContext(ctx).Model(&entity.Device{}).
				Where("device_id = ?", hb.DeviceID).
				Update("last_seen_at", hb.LastSeenAt).Error
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("provider %s: apply heartbeat for %s: %v", adapter.Name(), hb.DeviceID, err))
			} else {
				result.Metrics["heartbeatsApplied"]++
			}
		}
	}
}

// autoLinkAssets links every device whose serial matches an asset's
// serial_match_hint, with basis Serial. This is the only automatic linking
// rule; device-SIM links are always explicit.
func (e *Engine) autoLinkAssets(ctx context.Context, result *Result) error {
	var matches []struct {
		AssetID  string `gorm:"column:asset_id"`
		DeviceID string `gorm:"column:device_id"`
	}
	err := e.db.WithContext(ctx).Table("devices AS d").
		Joins("JOIN assets AS a ON a.serial_match_hint = d.serial").
		Where("d.serial <> ''").
		Select("a.asset_id, d.device_id").
		Scan(&matches).Error
	if err != nil {
		return err
	}

	for _, m := range matches {
		created, err := e.links.LinkAssetToDevice(ctx, m.AssetID, m.DeviceID, entity.MatchBasisSerial)
		if err != nil {
			return err
		}
		if created {
			result.NewLinksCreated++
		} else {
			result.LinksUpdated++
		}
	}
	return nil
}

// auditConsistency recomputes the store-wide anomaly counts. These cover
// the whole entity store, not just this run's records.
func (e *Engine) auditConsistency(ctx context.Context, result *Result) error {
	db := e.db.WithContext(ctx)

	var duplicates int64
	err := db.Raw(`SELECT COUNT(*) FROM (
			SELECT iccid FROM links_device_sim
			GROUP BY iccid
			HAVING COUNT(DISTINCT device_id) > 1
		) AS dup`).Scan(&duplicates).Error
	if err != nil {
		return err
	}

	var unmatched int64
	err = db.Raw(`SELECT COUNT(*) FROM sims
		WHERE iccid NOT IN (SELECT iccid FROM links_device_sim)`).
		Scan(&unmatched).Error
	if err != nil {
		return err
	}

	var orphaned int64
	err = db.Raw(`SELECT COUNT(*) FROM devices
		WHERE device_id NOT IN (SELECT device_id FROM links_device_sim)`).
		Scan(&orphaned).Error
	if err != nil {
		return err
	}

	result.DuplicateIccidsFound = int(duplicates)
	result.UnmatchedSims = int(unmatched)
	result.OrphanedDevices = int(orphaned)
	return nil
}
