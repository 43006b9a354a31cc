package reports

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sim-device-platform/core/entity"

	"gorm.io/gorm"
)

// Definition is one entry of the static report catalog. Columns are fixed
// per type; every generated row carries exactly these columns, with absent
// values as empty strings.
type Definition struct {
	Type        entity.ReportType `json:"type"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description"`
	Columns     []string          `json:"columns"`

	build func(ctx context.Context, db *gorm.DB) ([][]string, error)
}

// deviceReportRow is the scan target for the device-rooted extracts.
type deviceReportRow struct {
	DeviceID   string     `gorm:"column:device_id"`
	Oem        string     `gorm:"column:oem"`
	Model      string     `gorm:"column:model"`
	Imei       string     `gorm:"column:imei"`
	Serial     string     `gorm:"column:serial"`
	Account    string     `gorm:"column:account"`
	Status     string     `gorm:"column:status"`
	ActiveTo   *time.Time `gorm:"column:active_to"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at"`

	Iccid      string   `gorm:"column:iccid"`
	Msisdn     string   `gorm:"column:msisdn"`
	Source     string   `gorm:"column:source"`
	Confidence *float64 `gorm:"column:confidence"`

	AssetID    string `gorm:"column:asset_id"`
	AssetName  string `gorm:"column:asset_name"`
	MatchBasis string `gorm:"column:match_basis"`
}

// definitions is the full catalog in catalog-listing order.
var definitions = []Definition{
	{
		Type:        entity.ReportActiveLinkedDevices,
		DisplayName: "Active Linked Devices",
		Description: "Active devices with both a SIM link and an asset link.",
		Columns: []string{"DeviceId", "Iccid", "Msisdn", "Imei", "Serial", "Oem", "Model",
			"Account", "AssetId", "AssetName", "Status", "LastSeenAt", "ActiveTo", "Source", "Confidence"},
		build: buildActiveLinkedDevices,
	},
	{
		Type:        entity.ReportInactiveDevices,
		DisplayName: "Inactive Devices",
		Description: "Devices currently reported inactive by their provider.",
		Columns:     []string{"DeviceId", "Oem", "Model", "Imei", "Serial", "Account", "ActiveTo", "LastSeenAt"},
		build:       buildInactiveDevices,
	},
	{
		Type:        entity.ReportSimButNoAsset,
		DisplayName: "SIM But No Asset",
		Description: "Devices with a SIM link but no asset link.",
		Columns:     []string{"DeviceId", "Iccid", "Msisdn", "Oem", "Model", "Account", "Status", "Source", "Confidence"},
		build:       buildSimButNoAsset,
	},
	{
		Type:        entity.ReportAssetButNoSim,
		DisplayName: "Asset But No SIM",
		Description: "Devices with an asset link but no SIM link.",
		Columns:     []string{"DeviceId", "AssetId", "AssetName", "MatchBasis", "Oem", "Model", "Account", "Status"},
		build:       buildAssetButNoSim,
	},
	{
		Type:        entity.ReportNoLinkageOrphaned,
		DisplayName: "Orphaned Devices",
		Description: "Devices with neither a SIM link nor an asset link.",
		Columns:     []string{"DeviceId", "Oem", "Model", "Imei", "Serial", "Account", "Status", "LastSeenAt"},
		build:       buildNoLinkageOrphaned,
	},
	{
		Type:        entity.ReportUnmatchedSims,
		DisplayName: "Unmatched SIMs",
		Description: "SIMs without any device link.",
		Columns:     []string{"Iccid", "Msisdn", "Status", "Carrier", "AccountId", "Description", "Tags"},
		build:       buildUnmatchedSims,
	},
}

// Catalog returns the report catalog in stable order.
func Catalog() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// definitionFor resolves a report type; ok is false for unknown types.
func definitionFor(t entity.ReportType) (Definition, bool) {
	for _, d := range definitions {
		if d.Type == t {
			return d, true
		}
	}
	return Definition{}, false
}

func deviceJoinQuery(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.WithContext(ctx).Table("devices AS d").
		Joins("LEFT JOIN links_device_sim AS dsl ON dsl.device_id = d.device_id").
		Joins("LEFT JOIN sims AS sim ON sim.iccid = dsl.iccid").
		Joins("LEFT JOIN links_asset_device AS adl ON adl.device_id = d.device_id").
		Joins("LEFT JOIN assets AS a ON a.asset_id = adl.asset_id").
		Select(`d.device_id, d.oem, d.model, d.imei, d.serial, d.account, d.status,
			d.active_to, d.last_seen_at,
			dsl.iccid AS iccid, sim.msisdn AS msisdn, dsl.source AS source, dsl.confidence AS confidence,
			adl.asset_id AS asset_id, a.name AS asset_name, adl.match_basis AS match_basis`).
		Order("d.device_id ASC, dsl.iccid ASC, adl.asset_id ASC")
}

func buildActiveLinkedDevices(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var rows []deviceReportRow
	err := deviceJoinQuery(ctx, db).
		Where("d.status = ?", entity.DeviceStatusActive).
		Where("dsl.iccid IS NOT NULL").
		Where("adl.asset_id IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.DeviceID, r.Iccid, r.Msisdn, r.Imei, r.Serial, r.Oem, r.Model,
			r.Account, r.AssetID, r.AssetName, r.Status,
			formatTime(r.LastSeenAt), formatTime(r.ActiveTo), r.Source, formatFloat(r.Confidence),
		})
	}
	return out, nil
}

func buildInactiveDevices(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var devs []entity.Device
	err := db.WithContext(ctx).
		Where("status = ?", entity.DeviceStatusInactive).
		Order("device_id ASC").
		Find(&devs).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(devs))
	for _, d := range devs {
		out = append(out, []string{
			d.DeviceID, string(d.Oem), d.Model, d.Imei, d.Serial, d.Account,
			formatTime(d.ActiveTo), formatTime(d.LastSeenAt),
		})
	}
	return out, nil
}

func buildSimButNoAsset(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var rows []deviceReportRow
	err := deviceJoinQuery(ctx, db).
		Where("dsl.iccid IS NOT NULL").
		Where("adl.asset_id IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.DeviceID, r.Iccid, r.Msisdn, r.Oem, r.Model, r.Account, r.Status,
			r.Source, formatFloat(r.Confidence),
		})
	}
	return out, nil
}

func buildAssetButNoSim(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var rows []deviceReportRow
	err := deviceJoinQuery(ctx, db).
		Where("adl.asset_id IS NOT NULL").
		Where("dsl.iccid IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.DeviceID, r.AssetID, r.AssetName, r.MatchBasis, r.Oem, r.Model, r.Account, r.Status,
		})
	}
	return out, nil
}

func buildNoLinkageOrphaned(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var rows []deviceReportRow
	err := deviceJoinQuery(ctx, db).
		Where("dsl.iccid IS NULL").
		Where("adl.asset_id IS NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.DeviceID, r.Oem, r.Model, r.Imei, r.Serial, r.Account, r.Status,
			formatTime(r.LastSeenAt),
		})
	}
	return out, nil
}

// buildUnmatchedSims is SIM-rooted so SIMs with zero device links surface;
// the device-rooted join can never show them.
func buildUnmatchedSims(ctx context.Context, db *gorm.DB) ([][]string, error) {
	var sims []entity.Sim
	err := db.WithContext(ctx).
		Where("iccid NOT IN (SELECT iccid FROM links_device_sim)").
		Order("iccid ASC").
		Find(&sims).Error
	if err != nil {
		return nil, err
	}

	out := make([][]string, 0, len(sims))
	for _, s := range sims {
		out = append(out, []string{
			s.Iccid, s.Msisdn, s.Status, s.Carrier, s.AccountID, s.Description,
			strings.Join(s.Tags, ";"),
		})
	}
	return out, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
