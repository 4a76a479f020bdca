package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StringList is a JSON-encoded list of strings. It is stored as text so the
// same model works against PostgreSQL and the SQLite driver used in tests.
type StringList []string

// Value implements driver.Valuer
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
}

// GormDataType tells GORM the column type for StringList fields
func (StringList) GormDataType() string {
	return "text"
}

// Contains reports whether the list holds the given value
func (s StringList) Contains(value string) bool {
	for _, item := range s {
		if item == value {
			return true
		}
	}
	return false
}

// User represents the users table
type User struct {
	ID                  int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	APIKey              uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"api_key"`
	Username            string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email               string     `gorm:"size:255" json:"email"`
	PasswordHash        string     `gorm:"size:255;not null" json:"-"` // Don't expose password hash in JSON
	IsAdmin             bool       `gorm:"default:false" json:"is_admin"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`     // Number of consecutive failed login attempts
	LockedUntil         *time.Time `json:"locked_until,omitempty"` // Time until which the account is locked
	CreatedAt           time.Time  `json:"created_at"`
	LastLoginAt         *time.Time `json:"last_login_at"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate sets the API key before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.APIKey == uuid.Nil {
		u.APIKey = uuid.New()
	}
	return nil
}

// Record represents a vinyl record in a user's collection
type Record struct {
	ID               int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	APIKey           uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"api_key"`
	UserID           int64          `gorm:"index:idx_records_user_id;not null" json:"user_id"`
	Artist           string         `gorm:"size:255;not null" json:"artist"`
	ArtistNormalized string         `gorm:"size:255;not null;index:idx_records_artist_normalized" json:"-"` // For efficient searching
	Album            string         `gorm:"size:255;not null" json:"album"`
	AlbumNormalized  string         `gorm:"size:255;not null;index:idx_records_album_normalized" json:"-"`
	Year             int32          `gorm:"default:0;index:idx_records_year" json:"year"`
	Label            string         `gorm:"size:255;index:idx_records_label" json:"label"`
	Country          string         `gorm:"size:100" json:"country"`
	CatalogNumber    string         `gorm:"size:100" json:"catalog_number"`
	Barcode          string         `gorm:"size:100;index:idx_records_barcode" json:"barcode"`
	Genres           StringList     `json:"genres"`
	Styles           StringList     `json:"styles"`
	Musicians        StringList     `json:"musicians"`
	DiscogsID        string         `gorm:"size:255;index:idx_records_discogs_id" json:"discogs_id"`
	DiscogsURL       string         `gorm:"size:512" json:"discogs_url"`
	SpotifyID        string         `gorm:"size:255;index:idx_records_spotify_id" json:"spotify_id"`
	SpotifyURL       string         `gorm:"size:512" json:"spotify_url"`
	CoverURL         string         `gorm:"size:512" json:"cover_url"`
	Notes            string         `json:"notes"`
	CustomValues     datatypes.JSON `json:"custom_values"` // Cache of custom column values keyed by column api_key
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Relationships
	User   *User               `gorm:"foreignKey:UserID" json:"-"`
	Values []CustomColumnValue `gorm:"foreignKey:RecordID" json:"-"`
}

func (Record) TableName() string {
	return "records"
}

// BeforeCreate sets the API key before creating a record
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.APIKey == uuid.Nil {
		r.APIKey = uuid.New()
	}
	return nil
}

// BeforeSave keeps the normalized search columns in sync
func (r *Record) BeforeSave(tx *gorm.DB) error {
	r.ArtistNormalized = strings.ToLower(strings.TrimSpace(r.Artist))
	r.AlbumNormalized = strings.ToLower(strings.TrimSpace(r.Album))
	return nil
}

// Custom column kinds
const (
	ColumnKindText         = "text"
	ColumnKindNumber       = "number"
	ColumnKindSingleSelect = "single_select"
	ColumnKindMultiSelect  = "multi_select"
	ColumnKindBoolean      = "boolean"
)

// ValidColumnKind reports whether kind is one of the supported column kinds
func ValidColumnKind(kind string) bool {
	switch kind {
	case ColumnKindText, ColumnKindNumber, ColumnKindSingleSelect, ColumnKindMultiSelect, ColumnKindBoolean:
		return true
	}
	return false
}

// ColumnOption is a declared option for select-kind columns
type ColumnOption struct {
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

// ColumnOptions is the JSON-encoded option list of a custom column
type ColumnOptions []ColumnOption

// Value implements driver.Valuer
func (o ColumnOptions) Value() (driver.Value, error) {
	if len(o) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (o *ColumnOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("cannot scan %T into ColumnOptions", value)
	}
}

// GormDataType tells GORM the column type for ColumnOptions fields
func (ColumnOptions) GormDataType() string {
	return "text"
}

// Contains reports whether value is a declared option
func (o ColumnOptions) Contains(value string) bool {
	for _, opt := range o {
		if opt.Value == value {
			return true
		}
	}
	return false
}

// CustomColumn represents a user-defined typed field attached to collection records
type CustomColumn struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	APIKey    uuid.UUID     `gorm:"type:uuid;uniqueIndex" json:"api_key"`
	UserID    int64         `gorm:"index:idx_custom_columns_user_id;not null" json:"user_id"`
	Name      string        `gorm:"size:255;not null" json:"name"`
	Kind      string        `gorm:"size:50;not null;check:kind IN ('text', 'number', 'single_select', 'multi_select', 'boolean')" json:"kind"`
	Options   ColumnOptions `json:"options"`
	Position  int32         `gorm:"default:0;index:idx_custom_columns_position" json:"position"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	// Relationships
	Values []CustomColumnValue `gorm:"foreignKey:ColumnID" json:"-"`
}

func (CustomColumn) TableName() string {
	return "custom_columns"
}

// BeforeCreate sets the API key before creating a custom column
func (c *CustomColumn) BeforeCreate(tx *gorm.DB) error {
	if c.APIKey == uuid.Nil {
		c.APIKey = uuid.New()
	}
	return nil
}

// CustomColumnValue joins a record and a custom column to a string value
type CustomColumnValue struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID  int64     `gorm:"uniqueIndex:idx_values_record_column;not null" json:"record_id"`
	ColumnID  int64     `gorm:"uniqueIndex:idx_values_record_column;index:idx_values_column_id;not null" json:"column_id"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Record *Record       `gorm:"foreignKey:RecordID" json:"-"`
	Column *CustomColumn `gorm:"foreignKey:ColumnID" json:"column,omitempty"`

	// Constraints: UNIQUE(record_id, column_id)
}

func (CustomColumnValue) TableName() string {
	return "custom_column_values"
}

// TableView represents a saved grid preset: sort, filters, column sizing,
// hidden columns, and page size for the collection table
type TableView struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	APIKey        uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"api_key"`
	UserID        int64          `gorm:"index:idx_table_views_user_id;not null" json:"user_id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	SortField     string         `gorm:"size:100;default:'created_at'" json:"sort_field"`
	SortDirection string         `gorm:"size:4;default:'desc';check:sort_direction IN ('asc', 'desc')" json:"sort_direction"`
	Filters       datatypes.JSON `json:"filters"`       // column -> filter value
	ColumnWidths  datatypes.JSON `json:"column_widths"` // column -> width in pixels
	HiddenColumns StringList     `json:"hidden_columns"`
	PageSize      int32          `gorm:"default:25" json:"page_size"`
	IsDefault     bool           `gorm:"default:false" json:"is_default"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (TableView) TableName() string {
	return "table_views"
}

// BeforeCreate sets the API key before creating a table view
func (v *TableView) BeforeCreate(tx *gorm.DB) error {
	if v.APIKey == uuid.Nil {
		v.APIKey = uuid.New()
	}
	return nil
}

// Lookup providers
const (
	ProviderDiscogs = "discogs"
	ProviderSpotify = "spotify"
)

// LookupEvent represents a third-party metadata lookup performed by a user
type LookupEvent struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *int64    `gorm:"index:idx_lookup_events_user_id" json:"user_id"`
	Provider     string    `gorm:"size:50;not null;check:provider IN ('discogs', 'spotify');index:idx_lookup_events_provider" json:"provider"`
	Query        string    `gorm:"size:500;not null" json:"query"`
	ResultsCount int32     `gorm:"default:0" json:"results_count"`
	CacheHit     bool      `gorm:"default:false" json:"cache_hit"`
	CreatedAt    time.Time `gorm:"index:idx_lookup_events_created_at" json:"created_at"`
}

func (LookupEvent) TableName() string {
	return "lookup_events"
}
