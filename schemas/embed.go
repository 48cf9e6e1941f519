// Package schemas holds the JSON Schemas of the artifacts the audit emits.
package schemas

import _ "embed"

// ReportFile is the report schema file name within this directory.
const ReportFile = "report.schema.json"

// Report is the JSON Schema for audit reports.
//
//go:embed report.schema.json
var Report string
