package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventAttendanceClassified = "attendance.classified"

	EventLeaveApplied   = "leave.applied"
	EventLeaveApproved  = "leave.approved"
	EventLeaveRejected  = "leave.rejected"
	EventLeaveCancelled = "leave.cancelled"

	EventPayrollCalculated    = "payroll.calculated"
	EventPayrollStatusChanged = "payroll.status_changed"
)

// ExchangePayroll is the default topic exchange for engine events.
const ExchangePayroll = "hris.payroll.events"

// Event is the envelope published for every domain event
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CompanyID     string          `json:"company_id"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, companyID, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            id.String(),
		Type:          eventType,
		Source:        source,
		CompanyID:     companyID,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}
