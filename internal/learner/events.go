package learner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// EventStepViewed is logged the first time a learner opens a sub-step.
const EventStepViewed = "step_viewed"

// Event is one row of the events table. StepID, when set, is stored as the
// step_id key of the JSON data.
type Event struct {
	CaseID    string
	LearnerID string
	Type      string
	StepID    string
	Data      map[string]any
	At        time.Time
}

// StepViewed builds the event logged when a learner first opens stepID.
func StepViewed(caseID, learnerID, stepID string) Event {
	return Event{CaseID: caseID, LearnerID: learnerID, Type: EventStepViewed, StepID: stepID}
}

func (e Event) check() error {
	switch {
	case e.Type == "":
		return fmt.Errorf("event type is required")
	case e.CaseID == "":
		return fmt.Errorf("case_id is required")
	case e.LearnerID == "":
		return fmt.Errorf("learner_id is required")
	}
	return nil
}

func (e Event) payload() ([]byte, error) {
	data := make(map[string]any, len(e.Data)+1)
	maps.Copy(data, e.Data)
	if e.StepID != "" {
		data["step_id"] = e.StepID
	}
	return json.Marshal(data)
}

// EventLogger records learner events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger drops events. It is used when no database is configured.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error { return nil }

// MemoryEventLogger keeps events in a slice.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if err := event.check(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of the logged events, oldest first.
func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// PostgresEventLogger writes events of existing cases to the events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if err := event.check(); err != nil {
		return err
	}
	data, err := event.payload()
	if err != nil {
		return fmt.Errorf("marshal %s data: %w", event.Type, err)
	}
	at := event.At
	if at.IsZero() {
		at = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	// An unknown case inserts no row.
	cmd, err := l.pool.Exec(ctx,
		`INSERT INTO events (case_id, learner_id, event_type, data, created_at)
		 SELECT c.id, $2, $3, $4::jsonb, $5
		 FROM cases c
		 WHERE c.id = $1::uuid`,
		event.CaseID, event.LearnerID, event.Type, string(data), at,
	)
	if err != nil {
		return fmt.Errorf("insert %s event: %w", event.Type, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("log %s event: case %s not found", event.Type, event.CaseID)
	}

	slog.Debug("learner event logged", "type", event.Type, "case_id", event.CaseID, "learner_id", event.LearnerID, "step_id", event.StepID)
	return nil
}
