package dto

import "time"

// ScanSummaryResponse is returned after a compliance scan completes.
type ScanSummaryResponse struct {
	RecordsScanned int       `json:"recordsScanned"`
	AlertsCreated  int       `json:"alertsCreated"`
	AlertsSkipped  int       `json:"alertsSkipped"`
	RecordsFailed  int       `json:"recordsFailed"`
	ScannedAt      time.Time `json:"scannedAt"`
}
