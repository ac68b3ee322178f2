package tennisapi

import "time"

const (
	providerName       = "tennisapi"
	defaultBaseURL     = "http://localhost:8000"
	defaultHTTPTimeout = 10 * time.Second
	errorBodySnippet   = 512

	matchesPath  = "/api/tennis"
	analysisPath = "/api/tennis/analysis"
	rawPath      = "/api/tennis/raw"
)
