// Package reports implements the fixed-catalog report generator.
//
// Six report types extract tabular views of the entity store. Each type
// has a fixed column set; rows are serialized to CSV and uploaded to
// object storage under the reports/ prefix, with a Report record tracking
// the Generating -> Completed|Failed lifecycle.
//
// # HTTP Endpoints
//
//   - POST /reports/generate : Generate a report synchronously.
//   - GET /reports : List generated reports.
//   - GET /reports/types : The report catalog.
//   - GET /reports/:id/download : Stream a completed artifact.
package reports
