package store

import (
	"context"
	"time"

	json "github.com/goccy/go-json"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/medstream-ai/pipeline/pkg/common/models"
)

// EventModel mirrors NormalizedEvent for relational storage; the coding
// lists live in JSON columns.
type EventModel struct {
	ID                    string         `gorm:"primaryKey;column:id"`
	PatientID             string         `gorm:"column:patient_id;index"`
	ResourceType          string         `gorm:"column:resource_type"`
	Timestamp             time.Time      `gorm:"column:timestamp"`
	Year                  int            `gorm:"column:year"`
	AgeAtEvent            *int           `gorm:"column:age_at_event"`
	PrimaryCodings        datatypes.JSON `gorm:"column:primary_codings"`
	StatusCodings         datatypes.JSON `gorm:"column:status_codings"`
	IntentCodings         datatypes.JSON `gorm:"column:intent_codings"`
	InterpretationCodings datatypes.JSON `gorm:"column:interpretation_codings"`
	ValueConceptCodings   datatypes.JSON `gorm:"column:value_concept_codings"`
	ValueNumeric          *float64       `gorm:"column:value_numeric"`
	UnitCode              *string        `gorm:"column:unit_code"`
	UnitDisplay           *string        `gorm:"column:unit_display"`
	CreatedAt             time.Time      `gorm:"column:created_at"`
}

func (EventModel) TableName() string {
	return "normalized_events"
}

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&EventModel{})
}

// SaveEvents upserts every event of one patient record. Reprocessing a
// bundle replaces its events rather than duplicating them.
func (r *EventRepository) SaveEvents(ctx context.Context, record *models.PatientRecord) error {
	if len(record.Events) == 0 {
		return nil
	}

	rows := make([]EventModel, 0, len(record.Events))
	now := time.Now().UTC()
	for i := range record.Events {
		event := &record.Events[i]
		rows = append(rows, EventModel{
			ID:                    event.EventID,
			PatientID:             event.PatientID,
			ResourceType:          event.ResourceType,
			Timestamp:             event.Timestamp,
			Year:                  event.Year,
			AgeAtEvent:            event.AgeAtEvent,
			PrimaryCodings:        codingsJSON(event.PrimaryCodings),
			StatusCodings:         codingsJSON(event.StatusCodings),
			IntentCodings:         codingsJSON(event.IntentCodings),
			InterpretationCodings: codingsJSON(event.InterpretationCodings),
			ValueConceptCodings:   codingsJSON(event.ValueConceptCodings),
			ValueNumeric:          event.ValueNumeric,
			UnitCode:              event.UnitCode,
			UnitDisplay:           event.UnitDisplay,
			CreatedAt:             now,
		})
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rows).Error
}

func codingsJSON(codings []models.Coding) datatypes.JSON {
	data, err := json.Marshal(codings)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(data)
}
