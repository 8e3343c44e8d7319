package domain

// Metrics is a point-in-time snapshot of admission activity.
type Metrics struct {
	TotalRequests       uint64  `json:"totalRequests"`
	BlockedRequests     uint64  `json:"blockedRequests"`
	WhitelistedRequests uint64  `json:"whitelistedRequests"`
	FailedOpenRequests  uint64  `json:"failedOpenRequests"`
	CacheHits           uint64  `json:"cacheHits"`
	CacheMisses         uint64  `json:"cacheMisses"`
	CacheHitRate        float64 `json:"cacheHitRate"`
	CacheSize           int     `json:"cacheSize"`
	AvgResponseTimeMs   float64 `json:"avgResponseTime"`
	ActiveRules         int     `json:"activeRules"`
}
