package events

import "time"

// Evento emitido pelo orquestrador após cada ciclo de scan.
type ScanSummary struct {
	ScanID     string    `json:"scan_id"`
	Processed  int       `json:"processed"` // assinantes avaliados
	Scanned    int       `json:"scanned"`   // assinantes efetivamente escaneados
	AlertsSent int       `json:"alerts_sent"`
	Regions    []string  `json:"regions"`
	Errors     []string  `json:"errors,omitempty"`
	Ts         time.Time `json:"ts"`
}
