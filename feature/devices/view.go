package devices

import (
	"context"
	"strings"
	"time"

	"sim-device-platform/core/entity"

	"gorm.io/gorm"
)

// ViewRow is one row of the unified cross-entity projection: a device with
// at most one joined SIM link and at most one joined asset link. A device
// carrying multiple SIM or asset links fans out to multiple rows.
type ViewRow struct {
	DeviceID     string              `gorm:"column:device_id" json:"deviceId"`
	Oem          entity.Oem          `gorm:"column:oem" json:"oem"`
	Model        string              `gorm:"column:model" json:"model"`
	Imei         string              `gorm:"column:imei" json:"imei"`
	Serial       string              `gorm:"column:serial" json:"serial"`
	Account      string              `gorm:"column:account" json:"account"`
	Status       entity.DeviceStatus `gorm:"column:status" json:"status"`
	ActiveTo     *time.Time          `gorm:"column:active_to" json:"activeTo"`
	LastSeenAt   *time.Time          `gorm:"column:last_seen_at" json:"lastSeenAt"`
	LastSyncedAt time.Time           `gorm:"column:last_synced_at" json:"lastSyncedAt"`

	Iccid           string             `gorm:"column:iccid" json:"iccid"`
	Msisdn          string             `gorm:"column:msisdn" json:"msisdn"`
	Tags            entity.StringList  `gorm:"column:tags" json:"tags"`
	Confidence      *float64           `gorm:"column:confidence" json:"confidence"`
	Source          *entity.LinkSource `gorm:"column:source" json:"source"`
	LinkFirstSeenAt *time.Time         `gorm:"column:link_first_seen_at" json:"linkFirstSeenAt"`
	LinkLastSeenAt  *time.Time         `gorm:"column:link_last_seen_at" json:"linkLastSeenAt"`

	AssetID    string             `gorm:"column:asset_id" json:"assetId"`
	AssetName  string             `gorm:"column:asset_name" json:"assetName"`
	MatchBasis *entity.MatchBasis `gorm:"column:match_basis" json:"matchBasis"`
}

// Filter holds the optional, conjunctive predicates of the unified view.
type Filter struct {
	// Search matches case-insensitively against device_id, imei, serial,
	// iccid, asset name, and account.
	Search string
	// Oem filters by exact OEM.
	Oem entity.Oem
	// Status filters by exact device status.
	Status entity.DeviceStatus
	// Account filters by exact account (case-sensitive).
	Account string
	// HasAsset filters on presence/absence of a joined asset.
	HasAsset *bool
	// HasSim filters on presence/absence of a joined SIM.
	HasSim *bool
	// Page is 1-indexed.
	Page int
	// PageSize is the fixed page size.
	PageSize int
}

// ViewResult is one page of the unified view.
type ViewResult struct {
	Devices    []ViewRow `json:"devices"`
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

const defaultPageSize = 50

// UnifiedView returns the filtered, paginated cross-entity projection.
// Rows are ordered by device_id, then iccid, then asset_id, so fan-out
// rows for a device always come back in a stable order. An out-of-range
// page returns an empty page, not an error.
func (s *Service) UnifiedView(ctx context.Context, filter Filter) (*ViewResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = defaultPageSize
	}

	// The joined statement is built twice (count, then page) because GORM
	// chain state is not reusable across finishers.
	build := func() *gorm.DB {
		tx := s.db.WithContext(ctx).Table("devices AS d").
			Joins("LEFT JOIN links_device_sim AS dsl ON dsl.device_id = d.device_id").
			Joins("LEFT JOIN sims AS sim ON sim.iccid = dsl.iccid").
			Joins("LEFT JOIN links_asset_device AS adl ON adl.device_id = d.device_id").
			Joins("LEFT JOIN assets AS a ON a.asset_id = adl.asset_id")

		if filter.Search != "" {
			term := "%" + strings.ToLower(filter.Search) + "%"
			tx = tx.Where(
				"LOWER(d.device_id) LIKE ? OR LOWER(d.imei) LIKE ? OR LOWER(d.serial) LIKE ? OR LOWER(dsl.iccid) LIKE ? OR LOWER(a.name) LIKE ? OR LOWER(d.account) LIKE ?",
				term, term, term, term, term, term)
		}
		if filter.Oem != "" {
			tx = tx.Where("d.oem = ?", filter.Oem)
		}
		if filter.Status != "" {
			tx = tx.Where("d.status = ?", filter.Status)
		}
		if filter.Account != "" {
			tx = tx.Where("d.account = ?", filter.Account)
		}
		if filter.HasAsset != nil {
			if *filter.HasAsset {
				tx = tx.Where("adl.asset_id IS NOT NULL")
			} else {
				tx = tx.Where("adl.asset_id IS NULL")
			}
		}
		if filter.HasSim != nil {
			if *filter.HasSim {
				tx = tx.Where("dsl.iccid IS NOT NULL")
			} else {
				tx = tx.Where("dsl.iccid IS NULL")
			}
		}
		return tx
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize))

	rows := make([]ViewRow, 0, filter.PageSize)
	err := build().
		Select(`d.device_id, d.oem, d.model, d.imei, d.serial, d.account, d.status,
			d.active_to, d.last_seen_at, d.last_synced_at,
			dsl.iccid AS iccid, sim.msisdn AS msisdn, sim.tags AS tags,
			dsl.confidence AS confidence, dsl.source AS source,
			dsl.first_seen_at AS link_first_seen_at, dsl.last_seen_at AS link_last_seen_at,
			adl.asset_id AS asset_id, a.name AS asset_name, adl.match_basis AS match_basis`).
		Order("d.device_id ASC, dsl.iccid ASC, adl.asset_id ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return &ViewResult{
		Devices:    rows,
		TotalCount: total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: totalPages,
	}, nil
}
