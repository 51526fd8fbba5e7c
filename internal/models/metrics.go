package models

import "time"

// SystemMetrics is the admin snapshot of in-process instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Enrollments              uint64    `json:"enrollments"`
	EnrollmentsRejected      uint64    `json:"enrollments_rejected"`
	CreditsDebited           uint64    `json:"credits_debited"`
	CreditsRefunded          uint64    `json:"credits_refunded"`
	CreditsPurchased         uint64    `json:"credits_purchased"`
	EventsPublished          uint64    `json:"events_published"`
	EventsFailed             uint64    `json:"events_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
