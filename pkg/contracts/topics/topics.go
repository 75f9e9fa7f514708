package topics

const (
	// Alertas de arbitragem para o gateway de envio (SMS/chat)
	ArbAlerts = "arb_alerts"

	// Resumo publicado ao fim de cada ciclo do orquestrador
	ScanSummaries = "scan_summaries"

	// DLQ
	ArbAlertsDLQ = "arb_alerts_dlq"
)
