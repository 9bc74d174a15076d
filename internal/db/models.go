package db

import (
	"encoding/json"
	"time"
)

// FeedSource maps radar.feed_sources. A NULL organization_id marks a global
// default source that applies to every organization without its own list.
type FeedSource struct {
	FeedSourceID   int64     `gorm:"column:feed_source_id;primaryKey;autoIncrement"`
	FeedSourceUUID string    `gorm:"column:feed_source_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	OrganizationID *int64    `gorm:"column:organization_id;type:bigint"`
	Name           string    `gorm:"column:name;type:text;not null"`
	URL            string    `gorm:"column:url;type:text;not null"`
	Category       string    `gorm:"column:category;type:text;not null;default:general"`
	Country        string    `gorm:"column:country;type:text;not null;default:''"`
	Active         bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (FeedSource) TableName() string { return "radar.feed_sources" }

// KeywordEntry maps radar.keyword_entries: per-organization additions layered
// on top of the built-in corpus.
type KeywordEntry struct {
	KeywordEntryID int64     `gorm:"column:keyword_entry_id;primaryKey;autoIncrement"`
	OrganizationID *int64    `gorm:"column:organization_id;type:bigint"`
	Category       string    `gorm:"column:category;type:text;not null"`
	Keyword        string    `gorm:"column:keyword;type:text;not null"`
	Active         bool      `gorm:"column:active;type:boolean;not null;default:true"`
	CreatedAt      time.Time `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (KeywordEntry) TableName() string { return "radar.keyword_entries" }

// ExternalEvent maps radar.external_events. analyzed_at is the backlog
// cursor: NULL means the event still awaits relevance analysis.
type ExternalEvent struct {
	EventID         int64           `gorm:"column:event_id;primaryKey;autoIncrement"`
	EventUUID       string          `gorm:"column:event_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	OrganizationID  int64           `gorm:"column:organization_id;type:bigint;not null"`
	Title           string          `gorm:"column:title;type:text;not null"`
	Summary         string          `gorm:"column:summary;type:text;not null;default:''"`
	SourceName      string          `gorm:"column:source_name;type:text;not null"`
	SourceURL       string          `gorm:"column:source_url;type:text;not null"`
	PublishedAt     time.Time       `gorm:"column:published_at;type:timestamptz;not null"`
	Category        string          `gorm:"column:category;type:text;not null"`
	MatchedKeywords json.RawMessage `gorm:"column:matched_keywords;type:jsonb"`
	AnalyzedAt      *time.Time      `gorm:"column:analyzed_at;type:timestamptz"`
	CreatedAt       time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (ExternalEvent) TableName() string { return "radar.external_events" }

// IntelligenceAlert maps radar.intelligence_alerts. status is owned by the
// external review workflow; this pipeline only ever writes 'pending'.
type IntelligenceAlert struct {
	AlertID                  int64           `gorm:"column:alert_id;primaryKey;autoIncrement"`
	AlertUUID                string          `gorm:"column:alert_uuid;type:uuid;not null;default:gen_random_uuid();unique"`
	OrganizationID           int64           `gorm:"column:organization_id;type:bigint;not null"`
	EventID                  int64           `gorm:"column:event_id;type:bigint;not null"`
	RiskCode                 string          `gorm:"column:risk_code;type:text;not null"`
	ConfidenceScore          float64         `gorm:"column:confidence_score;type:double precision;not null"`
	SuggestedLikelihoodDelta int             `gorm:"column:suggested_likelihood_delta;type:integer;not null;default:0"`
	Reasoning                string          `gorm:"column:reasoning;type:text;not null;default:''"`
	ImpactAssessment         string          `gorm:"column:impact_assessment;type:text;not null;default:''"`
	SuggestedControls        json.RawMessage `gorm:"column:suggested_controls;type:jsonb"`
	Status                   string          `gorm:"column:status;type:text;not null;default:pending"`
	CreatedAt                time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
}

func (IntelligenceAlert) TableName() string { return "radar.intelligence_alerts" }

// RegisterRisk maps radar.register_risks, a read-only projection of the risk
// register collaborator. The pipeline never mutates these rows.
type RegisterRisk struct {
	RegisterRiskID int64     `gorm:"column:register_risk_id;primaryKey;autoIncrement"`
	OrganizationID int64     `gorm:"column:organization_id;type:bigint;not null"`
	RiskCode       string    `gorm:"column:risk_code;type:text;not null"`
	RiskTitle      string    `gorm:"column:risk_title;type:text;not null"`
	Active         bool      `gorm:"column:active;type:boolean;not null;default:true"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (RegisterRisk) TableName() string { return "radar.register_risks" }

// OrgSetting maps radar.org_settings. Absent rows fall back to env defaults.
type OrgSetting struct {
	OrganizationID int64     `gorm:"column:organization_id;type:bigint;primaryKey"`
	ScannerMode    string    `gorm:"column:scanner_mode;type:text;not null;default:ai"`
	MinConfidence  float64   `gorm:"column:min_confidence;type:double precision;not null;default:0.6"`
	LookbackDays   int       `gorm:"column:lookback_days;type:integer;not null;default:7"`
	UpdatedAt      time.Time `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (OrgSetting) TableName() string { return "radar.org_settings" }

// ScanRun maps radar.scan_runs, the operator audit ledger for full scans.
type ScanRun struct {
	ScanRunID      int64           `gorm:"column:scan_run_id;primaryKey;autoIncrement"`
	ScanRunUUID    string          `gorm:"column:scan_run_uuid;type:uuid;not null;unique"`
	OrganizationID int64           `gorm:"column:organization_id;type:bigint;not null"`
	Trigger        string          `gorm:"column:trigger;type:text;not null;default:manual"`
	StartedAt      time.Time       `gorm:"column:started_at;type:timestamptz;not null;default:now()"`
	FinishedAt     *time.Time      `gorm:"column:finished_at;type:timestamptz"`
	Status         string          `gorm:"column:status;type:text;not null;default:running"`
	FeedsProcessed int             `gorm:"column:feeds_processed;type:integer;not null;default:0"`
	ItemsStored    int             `gorm:"column:items_stored;type:integer;not null;default:0"`
	ItemsFiltered  int             `gorm:"column:items_filtered;type:integer;not null;default:0"`
	ItemsDuplicate int             `gorm:"column:items_duplicate;type:integer;not null;default:0"`
	EventsAnalyzed int             `gorm:"column:events_analyzed;type:integer;not null;default:0"`
	AlertsCreated  int             `gorm:"column:alerts_created;type:integer;not null;default:0"`
	SourceErrors   json.RawMessage `gorm:"column:source_errors;type:jsonb"`
	ErrorMessage   *string         `gorm:"column:error_message;type:text"`
	CreatedAt      time.Time       `gorm:"column:created_at;type:timestamptz;not null;default:now()"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;type:timestamptz;not null;default:now()"`
}

func (ScanRun) TableName() string { return "radar.scan_runs" }

func autoMigrateModels() []any {
	return []any{
		&FeedSource{},
		&KeywordEntry{},
		&ExternalEvent{},
		&IntelligenceAlert{},
		&RegisterRisk{},
		&OrgSetting{},
		&ScanRun{},
	}
}
