package constants

import "time"

const UserAgent = "castmeta-mediawiki-scraper/1.0 (+local use)"

var HTTPConfig = struct {
	DiscoveryTimeout time.Duration
	FetchTimeout     time.Duration
	ImageTimeout     time.Duration
}{
	DiscoveryTimeout: 10 * time.Second,
	FetchTimeout:     15 * time.Second,
	ImageTimeout:     5 * time.Second,
}

var RetryConfig = struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      time.Duration
}{
	MaxAttempts: 2,
	BaseDelay:   500 * time.Millisecond,
	Jitter:      250 * time.Millisecond,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     60 * time.Second,
}

var CacheTTL = struct {
	SiteProfile time.Duration
	PageContent time.Duration
}{
	SiteProfile: 24 * time.Hour,
	PageContent: 30 * time.Minute,
}

var ImageConfig = struct {
	MaxGalleryImages int
	ProbeConcurrency int
}{
	MaxGalleryImages: 3,
	ProbeConcurrency: 4,
}
