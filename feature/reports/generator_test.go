package reports_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"sim-device-platform/core/audit"
	"sim-device-platform/core/database"
	"sim-device-platform/core/entity"
	"sim-device-platform/core/storage/mocks"
	"sim-device-platform/feature/reports"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBucket = "sim-platform"

func newTestGenerator(t *testing.T) (*reports.Generator, *gorm.DB, *mocks.Client) {
	t.Helper()

	db, err := database.Connect(database.Config{
		Driver: "sqlite",
		Name:   ":memory:",
	})
	assert.NoError(t, err)
	assert.NoError(t, entity.Migrate(db))

	mockClient := new(mocks.Client)
	gen := reports.NewGenerator(db, zap.NewNop(), mockClient, testBucket,
		audit.NewService(db, zap.NewNop()))
	return gen, db, mockClient
}

func seedLinkedDevice(t *testing.T, db *gorm.DB) {
	t.Helper()
	now := time.Now().UTC()

	assert.NoError(t, db.Create(&entity.Device{
		DeviceID: "dev-1", Oem: entity.OemTeltonika, Model: "FMB920",
		Imei: "356307042441013", Serial: "S1", Account: "acme",
		Status: entity.DeviceStatusActive,
	}).Error)
	assert.NoError(t, db.Create(&entity.Sim{
		Iccid: "8944", Msisdn: "4512345678", Status: "Active",
	}).Error)
	assert.NoError(t, db.Create(&entity.Asset{
		AssetID: "asset-1", Name: "Trailer 42",
	}).Error)
	assert.NoError(t, db.Create(&entity.DeviceSimLink{
		DeviceID: "dev-1", Iccid: "8944", Confidence: 1.0,
		Source: entity.LinkSourceIccid, FirstSeenAt: now, LastSeenAt: now,
	}).Error)
	assert.NoError(t, db.Create(&entity.AssetDeviceLink{
		AssetID: "asset-1", DeviceID: "dev-1", MatchBasis: entity.MatchBasisSerial,
		FirstSeenAt: now, LastSeenAt: now,
	}).Error)
}

func TestGenerateActiveLinkedDevices(t *testing.T) {
	gen, db, mockClient := newTestGenerator(t)
	seedLinkedDevice(t, db)

	// An active device without links must not appear in the extract.
	assert.NoError(t, db.Create(&entity.Device{
		DeviceID: "dev-bare", Status: entity.DeviceStatusActive,
	}).Error)

	var uploaded []byte
	mockClient.On("PutObject", mock.Anything, testBucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	report, err := gen.Generate(context.Background(), entity.ReportActiveLinkedDevices)
	assert.NoError(t, err)
	assert.Equal(t, entity.ReportStatusCompleted, report.Status)
	assert.Equal(t, 1, report.RowCount)
	assert.Equal(t, int64(len(uploaded)), report.FileSizeBytes)
	assert.True(t, strings.HasPrefix(report.Path, "reports/"))

	lines := strings.Split(strings.TrimSpace(string(uploaded)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DeviceId")
	assert.Contains(t, lines[1], "dev-1")
	assert.Contains(t, lines[1], "8944")
	assert.Contains(t, lines[1], "Trailer 42")
	assert.NotContains(t, string(uploaded), "dev-bare")

	mockClient.AssertExpectations(t)
}

func TestGenerateUnmatchedSims(t *testing.T) {
	gen, db, mockClient := newTestGenerator(t)
	seedLinkedDevice(t, db)

	assert.NoError(t, db.Create(&entity.Sim{
		Iccid: "8944-lonely", Status: "Active", Carrier: "one-nz",
	}).Error)

	var uploaded []byte
	mockClient.On("PutObject", mock.Anything, testBucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(3).(io.Reader))
		}).
		Return(minio.UploadInfo{}, nil)

	report, err := gen.Generate(context.Background(), entity.ReportUnmatchedSims)
	assert.NoError(t, err)
	assert.Equal(t, 1, report.RowCount)
	assert.Contains(t, string(uploaded), "8944-lonely")
	// The linked SIM must not count as unmatched.
	assert.NotContains(t, string(uploaded), "8944,")
}

func TestGenerateEmitsAuditEvent(t *testing.T) {
	gen, db, mockClient := newTestGenerator(t)
	seedLinkedDevice(t, db)

	mockClient.On("PutObject", mock.Anything, testBucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	report, err := gen.Generate(context.Background(), entity.ReportActiveLinkedDevices)
	assert.NoError(t, err)

	var event entity.AuditEvent
	assert.NoError(t, db.First(&event, "action = ?", "report_generated").Error)
	assert.Equal(t, "report", event.SubjectType)
	assert.Equal(t, report.ReportID.String(), event.SubjectID)
	assert.Contains(t, event.Payload, string(entity.ReportActiveLinkedDevices))
	assert.Contains(t, event.Payload, `"rowCount":1`)
}

func TestGenerateUnknownType(t *testing.T) {
	gen, db, _ := newTestGenerator(t)

	_, err := gen.Generate(context.Background(), entity.ReportType("Bogus"))
	assert.Error(t, err)

	// A rejected type never writes a Report record.
	var count int64
	assert.NoError(t, db.Model(&entity.Report{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestGenerateUploadFailure(t *testing.T) {
	gen, db, mockClient := newTestGenerator(t)
	seedLinkedDevice(t, db)

	mockClient.On("PutObject", mock.Anything, testBucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("bucket gone"))

	report, err := gen.Generate(context.Background(), entity.ReportActiveLinkedDevices)
	assert.Error(t, err)
	assert.Equal(t, entity.ReportStatusFailed, report.Status)
	assert.Contains(t, report.Error, "bucket gone")

	// The Failed state is persisted before the error propagates.
	var stored entity.Report
	assert.NoError(t, db.First(&stored, "report_id = ?", report.ReportID).Error)
	assert.Equal(t, entity.ReportStatusFailed, stored.Status)

	// Only successful generations are audited.
	var events int64
	assert.NoError(t, db.Model(&entity.AuditEvent{}).Where("action = ?", "report_generated").Count(&events).Error)
	assert.Equal(t, int64(0), events)
}

func TestDownload(t *testing.T) {
	gen, db, mockClient := newTestGenerator(t)
	seedLinkedDevice(t, db)

	mockClient.On("PutObject", mock.Anything, testBucket, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)

	report, err := gen.Generate(context.Background(), entity.ReportActiveLinkedDevices)
	assert.NoError(t, err)

	mockClient.On("GetObject", mock.Anything, testBucket, report.Path, mock.Anything).
		Return(io.NopCloser(strings.NewReader("header\nrow")), nil)

	got, body, err := gen.Download(context.Background(), report.ReportID)
	assert.NoError(t, err)
	assert.Equal(t, report.ReportID, got.ReportID)

	data, err := io.ReadAll(body)
	assert.NoError(t, err)
	assert.NoError(t, body.Close())
	assert.Equal(t, "header\nrow", string(data))
}

func TestDownloadIncompleteReport(t *testing.T) {
	gen, db, _ := newTestGenerator(t)

	report := entity.Report{
		ReportID:    uuid.New(),
		Type:        entity.ReportInactiveDevices,
		Status:      entity.ReportStatusFailed,
		GeneratedAt: time.Now().UTC(),
	}
	assert.NoError(t, db.Create(&report).Error)

	_, _, err := gen.Download(context.Background(), report.ReportID)
	assert.Error(t, err)
}

func TestCatalog(t *testing.T) {
	catalog := reports.Catalog()
	assert.Len(t, catalog, 6)

	seen := map[entity.ReportType]bool{}
	for _, def := range catalog {
		assert.NotEmpty(t, def.DisplayName)
		assert.NotEmpty(t, def.Columns)
		seen[def.Type] = true
	}
	assert.True(t, seen[entity.ReportActiveLinkedDevices])
	assert.True(t, seen[entity.ReportUnmatchedSims])
}
