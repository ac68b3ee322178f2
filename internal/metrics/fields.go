package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrProvider = "provider"
	AttrSource   = "source"
	AttrReason   = "reason"
	AttrState    = "state"
	AttrResult   = "result"
)
