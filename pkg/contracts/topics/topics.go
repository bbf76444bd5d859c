package topics

const (
	// Ledger
	LedgerEvents = "sportsbook_ledger_events"

	// Resultados oficiais das partidas
	MatchResultsFinal = "match_results_final"

	// DLQs
	MatchResultsFinalDLQ = "match_results_final_dlq"
)

// Canal Redis Pub/Sub com os mesmos envelopes do tópico LedgerEvents
const ChannelLedgerBroadcast = "sportsbook_ledger_broadcast"
