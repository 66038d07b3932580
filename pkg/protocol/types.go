// Package protocol holds the wire types of the archetype lookup service.
// Requests and responses are JSON-RPC 2.0 objects, one per line, over a
// unix socket.
package protocol

const (
	MethodPing   = "ping"
	MethodLookup = "archetype.lookup"
	MethodAudit  = "archetype.audit"
	MethodStats  = "archetype.stats"
)

type LookupParams struct {
	Code string `json:"code"`
}

type LookupResult struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	DetailedText string `json:"detailed_text"`
	Resolution   string `json:"resolution,omitempty"`
}

type AuditResult struct {
	MissingCodes []string `json:"missing_codes"`
	ExtraCodes   []string `json:"extra_codes"`
	MissingCount int      `json:"missing_count"`
	ExtraCount   int      `json:"extra_count"`
}

type StatsResult struct {
	BuildID     string             `json:"build_id"`
	CompiledAt  string             `json:"compiled_at"`
	Entries     int                `json:"entries"`
	Records     int                `json:"records"`
	TextEntries int                `json:"text_entries"`
	Suspicious  int                `json:"suspicious"`
	Overrides   []string           `json:"overrides,omitempty"`
	Lookups     map[string]float64 `json:"lookups,omitempty"`
	Uptime      int64              `json:"uptime"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Uptime int64  `json:"uptime"`
}
