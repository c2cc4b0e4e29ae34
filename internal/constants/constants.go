package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 4
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

// Local-state keys. The archive keys are versioned collections; the generator
// and review-list keys are the legacy flat layout consulted only during
// migration.
const (
	KeyProfile = "maimai_profile"
	KeyRecords = "maimai_records"
	KeyToken   = "maimai_dx_token"

	KeyPreferenceArchives = "preference_archives"
	KeyPreferenceActive   = "preference_active_archive_id"
	KeyLegacyBoardConfig  = "generator_config"
	KeyLegacyBoardCells   = "generator_cells"

	KeyReviewArchives = "review_archives"
	KeyReviewActive   = "review_active_archive_id"
	KeyLegacyReviews  = "review_list"

	KeyRandomHistory = "random_history"
)

const RandomHistoryLimit = 10
