package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"sim-device-platform/core/audit"
	"sim-device-platform/core/entity"
	"sim-device-platform/core/storage"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const objectPrefix = "reports/"

// Generator produces report artifacts: builds the rows for a catalog
// definition, serializes them to CSV, and stores the artifact as an
// object next to a Report lifecycle record.
type Generator struct {
	db      *gorm.DB
	logger  *zap.Logger
	storage storage.Client
	bucket  string
	audit   audit.Recorder
}

// NewGenerator creates a new report generator.
func NewGenerator(db *gorm.DB, logger *zap.Logger, client storage.Client, bucket string, recorder audit.Recorder) *Generator {
	return &Generator{
		db:      db,
		logger:  logger,
		storage: client,
		bucket:  bucket,
		audit:   recorder,
	}
}

// Generate runs one report of the given type. An unknown type is rejected
// before any Report record is written. A build or upload failure persists
// the Failed state with its message and is then returned to the caller.
func (g *Generator) Generate(ctx context.Context, reportType entity.ReportType) (*entity.Report, error) {
	def, ok := definitionFor(reportType)
	if !ok {
		return nil, fmt.Errorf("unknown report type %q", reportType)
	}

	now := time.Now().UTC()
	id := uuid.New()
	report := entity.Report{
		ReportID:    id,
		Type:        reportType,
		GeneratedAt: now,
		Path:        objectName(reportType, id),
		Status:      entity.ReportStatusGenerating,
		CreatedAt:   now,
	}
	if err := g.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("persist report record: %w", err)
	}

	l := g.logger.With(
		zap.String("report_id", report.ReportID.String()),
		zap.String("report_type", string(reportType)))
	l.Info("Report generation started")

	rows, err := def.build(ctx, g.db)
	if err != nil {
		return g.fail(ctx, &report, fmt.Errorf("build rows: %w", err))
	}

	artifact, err := serializeCSV(def.Columns, rows)
	if err != nil {
		return g.fail(ctx, &report, fmt.Errorf("serialize csv: %w", err))
	}

	_, err = g.storage.PutObject(ctx, g.bucket, report.Path,
		bytes.NewReader(artifact), int64(len(artifact)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return g.fail(ctx, &report, fmt.Errorf("upload artifact: %w", err))
	}

	report.Status = entity.ReportStatusCompleted
	report.RowCount = len(rows)
	report.FileSizeBytes = int64(len(artifact))
	if err := g.db.WithContext(ctx).Save(&report).Error; err != nil {
		return nil, fmt.Errorf("finalize report record: %w", err)
	}

	g.audit.LogEvent(ctx, "report_generated", "report", report.ReportID.String(), map[string]any{
		"type":          report.Type,
		"rowCount":      report.RowCount,
		"fileSizeBytes": report.FileSizeBytes,
	})

	l.Info("Report generation completed",
		zap.Int("row_count", report.RowCount),
		zap.Int64("file_size_bytes", report.FileSizeBytes))
	return &report, nil
}

// fail persists the Failed state before propagating the failure.
func (g *Generator) fail(ctx context.Context, report *entity.Report, cause error) (*entity.Report, error) {
	report.Status = entity.ReportStatusFailed
	report.Error = cause.Error()
	if err := g.db.WithContext(ctx).Save(report).Error; err != nil {
		g.logger.Error("Failed to persist report failure state",
			zap.String("report_id", report.ReportID.String()), zap.Error(err))
	}
	g.logger.Error("Report generation failed",
		zap.String("report_id", report.ReportID.String()), zap.Error(cause))
	return report, cause
}

// Get returns a report record by id.
func (g *Generator) Get(ctx context.Context, id uuid.UUID) (*entity.Report, error) {
	var report entity.Report
	if err := g.db.WithContext(ctx).First(&report, "report_id = ?", id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns report records, newest first.
func (g *Generator) List(ctx context.Context, page, pageSize int) ([]entity.Report, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 50
	}

	var reports []entity.Report
	err := g.db.WithContext(ctx).
		Order("generated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reports).Error
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// Download streams a completed report's artifact from object storage.
func (g *Generator) Download(ctx context.Context, id uuid.UUID) (*entity.Report, io.ReadCloser, error) {
	report, err := g.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if report.Status != entity.ReportStatusCompleted {
		return nil, nil, fmt.Errorf("report %s is not completed (status %s)", id, report.Status)
	}

	obj, err := g.storage.GetObject(ctx, g.bucket, report.Path, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("fetch artifact %s: %w", report.Path, err)
	}
	return report, obj, nil
}

func serializeCSV(columns []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func objectName(t entity.ReportType, id uuid.UUID) string {
	return fmt.Sprintf("%s%s-%s.csv", objectPrefix, strings.ToLower(string(t)), id)
}
