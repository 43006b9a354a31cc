package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Oem identifies the originating device manufacturer/platform.
type Oem string

const (
	OemUnknown       Oem = "Unknown"
	OemDigitalMatter Oem = "DigitalMatter"
	OemTeltonika     Oem = "Teltonika"
)

// DeviceStatus is the lifecycle state reported by the provider.
type DeviceStatus string

const (
	DeviceStatusActive   DeviceStatus = "Active"
	DeviceStatusInactive DeviceStatus = "Inactive"
)

// LinkSource is the evidence basis for a device-SIM link.
type LinkSource string

const (
	LinkSourceIccid  LinkSource = "Iccid"
	LinkSourceImei   LinkSource = "Imei"
	LinkSourceSerial LinkSource = "Serial"
)

// MatchBasis is the evidence basis for an asset-device link.
type MatchBasis string

const (
	MatchBasisSerial MatchBasis = "Serial"
	MatchBasisImei   MatchBasis = "Imei"
	MatchBasisManual MatchBasis = "Manual"
)

// StringList stores an unordered set of tags as a JSON-encoded column.
// This keeps the schema portable between MySQL and sqlite.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// Device is the canonical record for a tracked IoT device. Devices are
// created on first sighting from any provider and fully overwritten on
// every subsequent sighting; reconciliation never deletes them.
type Device struct {
	DeviceID     string       `gorm:"column:device_id;primaryKey" json:"deviceId"`
	Oem          Oem          `gorm:"column:oem" json:"oem"`
	Model        string       `gorm:"column:model" json:"model"`
	Imei         string       `gorm:"column:imei" json:"imei"`
	Serial       string       `gorm:"column:serial" json:"serial"`
	Account      string       `gorm:"column:account" json:"account"`
	Status       DeviceStatus `gorm:"column:status" json:"status"`
	ActiveTo     *time.Time   `gorm:"column:active_to" json:"activeTo"`
	ProviderRef  string       `gorm:"column:provider_ref" json:"providerRef"`
	LastSeenAt   *time.Time   `gorm:"column:last_seen_at" json:"lastSeenAt"`
	LastSyncedAt time.Time    `gorm:"column:last_synced_at" json:"lastSyncedAt"`
	CreatedAt    time.Time    `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time    `gorm:"column:updated_at" json:"updatedAt"`
}

func (Device) TableName() string { return "devices" }

// Sim is the canonical record for a SIM card, keyed by ICCID.
// Status is free-text as reported by the SIM platform, not enumerated.
type Sim struct {
	Iccid        string     `gorm:"column:iccid;primaryKey" json:"iccid"`
	Msisdn       string     `gorm:"column:msisdn" json:"msisdn"`
	Status       string     `gorm:"column:status" json:"status"`
	Carrier      string     `gorm:"column:carrier" json:"carrier"`
	AccountID    string     `gorm:"column:account_id" json:"accountId"`
	Description  string     `gorm:"column:description" json:"description"`
	Tags         StringList `gorm:"column:tags;type:text" json:"tags"`
	LastSyncedAt time.Time  `gorm:"column:last_synced_at" json:"lastSyncedAt"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

func (Sim) TableName() string { return "sims" }

// Asset is a physical asset a device can be mounted on. Assets are
// administered outside the reconciliation run; the engine only reads
// SerialMatchHint to auto-link devices.
type Asset struct {
	AssetID         string    `gorm:"column:asset_id;primaryKey" json:"assetId"`
	Name            string    `gorm:"column:name" json:"name"`
	ExternalRef     string    `gorm:"column:external_ref" json:"externalRef"`
	SerialMatchHint string    `gorm:"column:serial_match_hint" json:"serialMatchHint"`
	CreatedAt       time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Asset) TableName() string { return "assets" }

// DeviceSimLink associates a device with a SIM. The composite key allows
// many-to-many rows in practice; the consistency audit flags ICCIDs linked
// to more than one device.
type DeviceSimLink struct {
	DeviceID    string     `gorm:"column:device_id;primaryKey" json:"deviceId"`
	Iccid       string     `gorm:"column:iccid;primaryKey" json:"iccid"`
	Confidence  float64    `gorm:"column:confidence" json:"confidence"`
	Source      LinkSource `gorm:"column:source" json:"source"`
	FirstSeenAt time.Time  `gorm:"column:first_seen_at" json:"firstSeenAt"`
	LastSeenAt  time.Time  `gorm:"column:last_seen_at" json:"lastSeenAt"`

	Device Device `gorm:"foreignKey:DeviceID;references:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
	Sim    Sim    `gorm:"foreignKey:Iccid;references:Iccid;constraint:OnDelete:CASCADE" json:"-"`
}

func (DeviceSimLink) TableName() string { return "links_device_sim" }

// AssetDeviceLink associates an asset with a device. Auto-created by the
// reconciliation engine on serial match, or explicitly via the linking
// service.
type AssetDeviceLink struct {
	AssetID     string     `gorm:"column:asset_id;primaryKey" json:"assetId"`
	DeviceID    string     `gorm:"column:device_id;primaryKey" json:"deviceId"`
	MatchBasis  MatchBasis `gorm:"column:match_basis" json:"matchBasis"`
	FirstSeenAt time.Time  `gorm:"column:first_seen_at" json:"firstSeenAt"`
	LastSeenAt  time.Time  `gorm:"column:last_seen_at" json:"lastSeenAt"`

	Asset  Asset  `gorm:"foreignKey:AssetID;references:AssetID;constraint:OnDelete:CASCADE" json:"-"`
	Device Device `gorm:"foreignKey:DeviceID;references:DeviceID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AssetDeviceLink) TableName() string { return "links_asset_device" }

// ReportType names one of the six fixed report extracts.
type ReportType string

const (
	ReportActiveLinkedDevices ReportType = "ActiveLinkedDevices"
	ReportInactiveDevices     ReportType = "InactiveDevices"
	ReportSimButNoAsset       ReportType = "SimButNoAsset"
	ReportAssetButNoSim       ReportType = "AssetButNoSim"
	ReportNoLinkageOrphaned   ReportType = "NoLinkageOrphaned"
	ReportUnmatchedSims       ReportType = "UnmatchedSims"
)

// ReportStatus is the report generation lifecycle.
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "Pending"
	ReportStatusGenerating ReportStatus = "Generating"
	ReportStatusCompleted  ReportStatus = "Completed"
	ReportStatusFailed     ReportStatus = "Failed"
)

// Report records one generation of a tabular extract.
type Report struct {
	ReportID      uuid.UUID    `gorm:"column:report_id;primaryKey;size:36" json:"reportId"`
	Type          ReportType   `gorm:"column:type" json:"type"`
	GeneratedAt   time.Time    `gorm:"column:generated_at" json:"generatedAt"`
	Path          string       `gorm:"column:path" json:"path"`
	RowCount      int          `gorm:"column:row_count" json:"rowCount"`
	FileSizeBytes int64        `gorm:"column:file_size_bytes" json:"fileSizeBytes"`
	Status        ReportStatus `gorm:"column:status" json:"status"`
	Error         string       `gorm:"column:error" json:"error,omitempty"`
	CreatedAt     time.Time    `gorm:"column:created_at" json:"createdAt"`
}

func (Report) TableName() string { return "reports" }

// AuditEvent is one fire-and-forget audit record. Payload is stored as
// serialized JSON.
type AuditEvent struct {
	ID          uuid.UUID `gorm:"column:id;primaryKey;size:36" json:"id"`
	At          time.Time `gorm:"column:at" json:"at"`
	Actor       string    `gorm:"column:actor" json:"actor"`
	Action      string    `gorm:"column:action" json:"action"`
	SubjectType string    `gorm:"column:subject_type" json:"subjectType"`
	SubjectID   string    `gorm:"column:subject_id" json:"subjectId"`
	Payload     string    `gorm:"column:payload;type:text" json:"payload,omitempty"`
	IPAddress   string    `gorm:"column:ip_address" json:"ipAddress,omitempty"`
	UserAgent   string    `gorm:"column:user_agent" json:"userAgent,omitempty"`
}

func (AuditEvent) TableName() string { return "audit_events" }

// Migrate creates or updates the schema for all platform tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Device{},
		&Sim{},
		&Asset{},
		&DeviceSimLink{},
		&AssetDeviceLink{},
		&Report{},
		&AuditEvent{},
	)
}
