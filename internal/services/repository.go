package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vinyldex/internal/models"
)

// ErrInvalidColumnValue is returned when a custom column value does not match
// the column's declared kind or options.
var ErrInvalidColumnValue = errors.New("invalid column value")

// ErrUnknownSortField is returned for sort fields outside the whitelist.
var ErrUnknownSortField = errors.New("unknown sort field")

// recordSortFields whitelists the sortable record columns. User-provided sort
// input never reaches the query builder unmapped.
var recordSortFields = map[string]string{
	"artist":     "artist_normalized",
	"album":      "album_normalized",
	"year":       "year",
	"label":      "label",
	"country":    "country",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// RecordListParams captures the filter, sort, and paging state of a collection listing
type RecordListParams struct {
	Query     string // substring match on artist or album
	Genre     string
	Year      int
	Label     string
	Country   string
	SortBy    string
	SortDir   string
	Limit     int
	Offset    int
}

// Repository handles database operations for models
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository instance
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// GetDB returns the underlying gorm handle
func (r *Repository) GetDB() *gorm.DB {
	return r.db
}

// User operations

func (r *Repository) CreateUser(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *Repository) GetUserByID(id int64) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// Record operations

func (r *Repository) CreateRecord(record *models.Record) error {
	return r.db.Create(record).Error
}

// GetRecordByID retrieves a record owned by the given user. Records belonging
// to other users are reported as not found.
func (r *Repository) GetRecordByID(userID, id int64) (*models.Record, error) {
	var record models.Record
	err := r.db.Where("user_id = ?", userID).First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) UpdateRecord(record *models.Record) error {
	return r.db.Save(record).Error
}

// DeleteRecord removes a record and its custom column values
func (r *Repository) DeleteRecord(userID, id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.Record{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("record_id = ?", id).Delete(&models.CustomColumnValue{}).Error
	})
}

// ListRecords fetches a page of the user's collection with filtering and a
// whitelisted sort. Ordering is made deterministic with a secondary sort on id.
func (r *Repository) ListRecords(userID int64, p RecordListParams) ([]models.Record, int64, error) {
	query := r.db.Model(&models.Record{}).Where("user_id = ?", userID)
	query = applyRecordFilters(query, p)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	column, ok := recordSortFields[p.SortBy]
	if p.SortBy == "" {
		column = "created_at"
	} else if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnknownSortField, p.SortBy)
	}

	direction := "desc"
	if p.SortDir == "asc" {
		direction = "asc"
	}

	var records []models.Record
	err := query.
		Order(column + " " + direction + ", id " + direction).
		Offset(p.Offset).
		Limit(p.Limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch records: %w", err)
	}

	return records, total, nil
}

// ListAllRecords fetches every matching record without paging, for export
func (r *Repository) ListAllRecords(userID int64, p RecordListParams) ([]models.Record, error) {
	query := r.db.Model(&models.Record{}).Where("user_id = ?", userID)
	query = applyRecordFilters(query, p)

	var records []models.Record
	err := query.
		Order("artist_normalized ASC, album_normalized ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	return records, nil
}

func applyRecordFilters(query *gorm.DB, p RecordListParams) *gorm.DB {
	if p.Query != "" {
		like := "%" + strings.ToLower(strings.TrimSpace(p.Query)) + "%"
		query = query.Where("artist_normalized LIKE ? OR album_normalized LIKE ?", like, like)
	}
	if p.Genre != "" {
		// Genres are stored as a JSON array of strings; match the quoted element
		query = query.Where("genres LIKE ?", "%"+strconv.Quote(p.Genre)+"%")
	}
	if p.Year != 0 {
		query = query.Where("year = ?", p.Year)
	}
	if p.Label != "" {
		query = query.Where("label = ?", p.Label)
	}
	if p.Country != "" {
		query = query.Where("country = ?", p.Country)
	}
	return query
}

// GetRecordByBarcode finds a user's record by its barcode
func (r *Repository) GetRecordByBarcode(userID int64, barcode string) (*models.Record, error) {
	var record models.Record
	err := r.db.Where("user_id = ? AND barcode = ?", userID, barcode).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Custom column operations

func (r *Repository) CreateColumn(column *models.CustomColumn) error {
	return r.db.Create(column).Error
}

func (r *Repository) GetColumnByID(userID, id int64) (*models.CustomColumn, error) {
	var column models.CustomColumn
	err := r.db.Where("user_id = ?", userID).First(&column, id).Error
	if err != nil {
		return nil, err
	}
	return &column, nil
}

func (r *Repository) UpdateColumn(column *models.CustomColumn) error {
	return r.db.Save(column).Error
}

// DeleteColumn removes a custom column together with every value stored under it
func (r *Repository) DeleteColumn(userID, id int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ?", userID).Delete(&models.CustomColumn{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("column_id = ?", id).Delete(&models.CustomColumnValue{}).Error
	})
}

// ListColumns returns the user's custom columns in display order
func (r *Repository) ListColumns(userID int64) ([]models.CustomColumn, error) {
	var columns []models.CustomColumn
	err := r.db.Where("user_id = ?", userID).
		Order("position ASC, id ASC").
		Find(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}
	return columns, nil
}

// Custom column value operations

// ValidateColumnValue checks a raw value against the column's kind and options
func ValidateColumnValue(column *models.CustomColumn, value string) error {
	switch column.Kind {
	case models.ColumnKindText:
		return nil
	case models.ColumnKindNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidColumnValue, value)
		}
	case models.ColumnKindBoolean:
		if value != "true" && value != "false" {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidColumnValue, value)
		}
	case models.ColumnKindSingleSelect:
		if !column.Options.Contains(value) {
			return fmt.Errorf("%w: %q is not a declared option", ErrInvalidColumnValue, value)
		}
	case models.ColumnKindMultiSelect:
		var selected []string
		if err := json.Unmarshal([]byte(value), &selected); err != nil {
			return fmt.Errorf("%w: multi-select value must be a JSON array of options", ErrInvalidColumnValue)
		}
		for _, v := range selected {
			if !column.Options.Contains(v) {
				return fmt.Errorf("%w: %q is not a declared option", ErrInvalidColumnValue, v)
			}
		}
	default:
		return fmt.Errorf("%w: unsupported column kind %q", ErrInvalidColumnValue, column.Kind)
	}
	return nil
}

// SetColumnValue validates and upserts a value for (record, column), then
// rebuilds the record's custom-value cache in the same transaction.
func (r *Repository) SetColumnValue(userID, recordID, columnID int64, value string) error {
	record, err := r.GetRecordByID(userID, recordID)
	if err != nil {
		return err
	}

	column, err := r.GetColumnByID(userID, columnID)
	if err != nil {
		return err
	}

	if err := ValidateColumnValue(column, value); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		cv := models.CustomColumnValue{
			RecordID:  recordID,
			ColumnID:  columnID,
			Value:     value,
			CreatedAt: now,
			UpdatedAt: now,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}, {Name: "column_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&cv).Error
		if err != nil {
			return fmt.Errorf("failed to upsert column value: %w", err)
		}

		return r.rebuildValueCache(tx, record)
	})
}

// DeleteColumnValue removes a value and rebuilds the record's cache
func (r *Repository) DeleteColumnValue(userID, recordID, columnID int64) error {
	record, err := r.GetRecordByID(userID, recordID)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("record_id = ? AND column_id = ?", recordID, columnID).
			Delete(&models.CustomColumnValue{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		return r.rebuildValueCache(tx, record)
	})
}

// GetColumnValues returns the values stored for a record, with columns preloaded
func (r *Repository) GetColumnValues(userID, recordID int64) ([]models.CustomColumnValue, error) {
	if _, err := r.GetRecordByID(userID, recordID); err != nil {
		return nil, err
	}

	var values []models.CustomColumnValue
	err := r.db.Where("record_id = ?", recordID).
		Preload("Column").
		Order("column_id ASC").
		Find(&values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch column values: %w", err)
	}
	return values, nil
}

// GetColumnValuesForRecords returns values for a set of records keyed by
// record id, then column id. Used by the CSV export.
func (r *Repository) GetColumnValuesForRecords(recordIDs []int64) (map[int64]map[int64]string, error) {
	result := make(map[int64]map[int64]string)
	if len(recordIDs) == 0 {
		return result, nil
	}

	var values []models.CustomColumnValue
	if err := r.db.Where("record_id IN ?", recordIDs).Find(&values).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch column values: %w", err)
	}

	for _, v := range values {
		if result[v.RecordID] == nil {
			result[v.RecordID] = make(map[int64]string)
		}
		result[v.RecordID][v.ColumnID] = v.Value
	}
	return result, nil
}

// rebuildValueCache regenerates the record's JSON mirror of its custom column
// values, keyed by column api_key. Runs inside the caller's transaction so the
// cache is never observed stale.
func (r *Repository) rebuildValueCache(tx *gorm.DB, record *models.Record) error {
	var values []models.CustomColumnValue
	err := tx.Where("record_id = ?", record.ID).
		Preload("Column").
		Find(&values).Error
	if err != nil {
		return fmt.Errorf("failed to load values for cache rebuild: %w", err)
	}

	cache := make(map[string]string, len(values))
	for _, v := range values {
		if v.Column != nil {
			cache[v.Column.APIKey.String()] = v.Value
		}
	}

	encoded, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to encode value cache: %w", err)
	}

	return tx.Model(&models.Record{}).
		Where("id = ?", record.ID).
		Update("custom_values", string(encoded)).Error
}

// Table view operations

func (r *Repository) CreateView(view *models.TableView) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if view.IsDefault {
			if err := clearDefaultView(tx, view.UserID); err != nil {
				return err
			}
		}
		return tx.Create(view).Error
	})
}

func (r *Repository) GetViewByID(userID, id int64) (*models.TableView, error) {
	var view models.TableView
	err := r.db.Where("user_id = ?", userID).First(&view, id).Error
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateView saves a view, keeping at most one default per user
func (r *Repository) UpdateView(view *models.TableView) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if view.IsDefault {
			if err := clearDefaultView(tx, view.UserID); err != nil {
				return err
			}
		}
		return tx.Save(view).Error
	})
}

func (r *Repository) DeleteView(userID, id int64) error {
	result := r.db.Where("user_id = ?", userID).Delete(&models.TableView{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListViews returns the user's saved table views, default first
func (r *Repository) ListViews(userID int64) ([]models.TableView, error) {
	var views []models.TableView
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, name ASC, id ASC").
		Find(&views).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table views: %w", err)
	}
	return views, nil
}

func clearDefaultView(tx *gorm.DB, userID int64) error {
	return tx.Model(&models.TableView{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

// Lookup event operations

func (r *Repository) CreateLookupEvent(event *models.LookupEvent) error {
	return r.db.Create(event).Error
}

// ListLookupEvents returns the most recent lookup events, newest first
func (r *Repository) ListLookupEvents(limit int) ([]models.LookupEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var events []models.LookupEvent
	err := r.db.Order("id DESC").Limit(limit).Find(&events).Error
	return events, err
}
