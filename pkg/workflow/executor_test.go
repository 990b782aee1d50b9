package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/notify"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu            sync.Mutex
	notifications []notify.Notification
	emails        []notify.Email
	err           error
	block         time.Duration
	panicMessage  string
	panicOn       string
}

func (s *recordingSink) Notify(ctx context.Context, notification notify.Notification) error {
	if s.panicMessage != "" {
		panic(s.panicMessage)
	}

	if s.panicOn != "" && notification.Message == s.panicOn {
		panic("sink exploded on " + s.panicOn)
	}

	if s.block > 0 {
		select {
		case <-time.After(s.block):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)

	return s.err
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := make([]string, 0, len(s.notifications))
	for _, notification := range s.notifications {
		messages = append(messages, notification.Message)
	}

	return messages
}

func (s *recordingSink) Send(_ context.Context, email notify.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emails = append(s.emails, email)

	return s.err
}

func newTestStore(t *testing.T) *file.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir())
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func createLead(t *testing.T, store persistence.Persistence, lead *models.Lead) *models.Lead {
	t.Helper()

	if lead.Status == "" {
		lead.Status = models.LeadStatusNew
	}

	require.NoError(t, store.LeadRepository().Create(t.Context(), lead))

	return lead
}

func leadActivities(t *testing.T, store persistence.Persistence, leadID int64) []*models.Activity {
	t.Helper()

	activities, err := store.ActivityRepository().List(t.Context(), persistence.ActivityFilter{
		ParentType: models.ParentLead,
		ParentID:   &leadID,
	})
	require.NoError(t, err)

	return activities
}

func TestExecutor_UpdateStatusAndAssignUser(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	summary := executor.Execute(t.Context(), Run{WorkflowID: "wf"}, models.Actions{
		models.UpdateStatus{Status: "contacted"},
		models.AssignUser{UserID: "42"},
	}, lead.Record())

	assert.Equal(t, Summary{Succeeded: 2}, summary)

	stored, err := store.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "contacted", stored.Status)
	assert.Equal(t, "42", stored.AssignedTo)
}

func TestExecutor_MalformedActionDoesNotStopOthers(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	summary := executor.Execute(t.Context(), Run{WorkflowID: "wf"}, models.Actions{
		models.UpdateStatus{Status: "contacted"},
		models.CreateActivity{},
		models.DecodeAction([]byte(`{"type":"send_sms"}`)),
		models.AssignUser{UserID: "u-1"},
	}, lead.Record())

	assert.Equal(t, Summary{Succeeded: 2, Skipped: 2}, summary)

	stored, err := store.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "contacted", stored.Status)
	assert.Equal(t, "u-1", stored.AssignedTo)
	assert.Empty(t, leadActivities(t, store, lead.ID))
}

func TestExecutor_StoreFailureIsIsolated(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	summary := executor.Execute(t.Context(), Run{WorkflowID: "wf"}, models.Actions{
		models.UpdateField{Field: "deleted_at", Value: "now"},
		models.UpdateField{Field: "source", Value: "import"},
	}, lead.Record())

	assert.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)

	stored, err := store.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "import", stored.Source)
}

func TestExecutor_RecordWithoutID(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)

	summary := executor.Execute(t.Context(), Run{}, models.Actions{
		models.UpdateStatus{Status: "contacted"},
	}, models.Record{"status": "new"})

	assert.Equal(t, Summary{Failed: 1}, summary)
}

func TestExecutor_CreateActivity(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	executor.Execute(t.Context(), Run{}, models.Actions{
		models.CreateActivity{ActivityType: "note", Summary: "Follow up {{name}} about {{unknown}}"},
		models.CreateActivity{ActivityType: "call"},
	}, lead.Record())

	activities := leadActivities(t, store, lead.ID)
	require.Len(t, activities, 2)

	summaries := map[string]string{}
	for _, activity := range activities {
		summaries[activity.Type] = activity.Summary
		assert.Equal(t, models.ParentLead, activity.ParentType)
		assert.False(t, activity.Date.IsZero())
	}

	assert.Equal(t, "Follow up Acme about {{unknown}}", summaries["note"])
	assert.Equal(t, DefaultActivitySummary, summaries["call"])
}

func TestExecutor_CreateActivityForClient(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)

	client := &models.Client{Name: "Globex", Email: "ops@globex.test"}
	require.NoError(t, store.ClientRepository().Create(t.Context(), client))

	summary := executor.Execute(t.Context(), Run{}, models.Actions{
		models.CreateActivity{ActivityType: "note", Summary: "Client {{name}}"},
		models.UpdateField{Field: "phone", Value: "555"},
	}, client.Record())
	assert.Equal(t, Summary{Succeeded: 2}, summary)

	activities, err := store.ActivityRepository().List(t.Context(), persistence.ActivityFilter{ParentType: models.ParentClient})
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, client.ID, activities[0].ParentID)
	assert.Equal(t, "Client Globex", activities[0].Summary)

	stored, err := store.ClientRepository().GetByID(t.Context(), client.ID)
	require.NoError(t, err)
	assert.Equal(t, "555", stored.Phone)
}

func TestExecutor_AutoConvert(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Company: "Acme Inc", Email: "ops@acme.test"})

	summary := executor.Execute(t.Context(), Run{}, models.Actions{models.AutoConvert{}}, lead.Record())
	assert.Equal(t, Summary{Succeeded: 1}, summary)

	converted, err := store.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	require.NotNil(t, converted.ConvertedToClientID)

	// A stale snapshot of the same lead is still a no-op.
	summary = executor.Execute(t.Context(), Run{}, models.Actions{models.AutoConvert{}}, lead.Record())
	assert.Equal(t, Summary{Succeeded: 1}, summary)

	summary = executor.Execute(t.Context(), Run{}, models.Actions{models.AutoConvert{}}, converted.Record())
	assert.Equal(t, Summary{Succeeded: 1}, summary)

	clients, err := store.ClientRepository().List(t.Context(), persistence.ClientFilter{})
	require.NoError(t, err)
	assert.Len(t, clients, 1)
}

func TestExecutor_AutoConvertRejectsClients(t *testing.T) {
	store := newTestStore(t)
	executor := NewExecutor(testLogger(), store)

	summary := executor.Execute(t.Context(), Run{}, models.Actions{models.AutoConvert{}},
		models.Record{"id": int64(1), "converted_from_lead_id": nil})

	assert.Equal(t, Summary{Failed: 1}, summary)
}

func TestExecutor_SendNotification(t *testing.T) {
	store := newTestStore(t)
	sink := &recordingSink{}
	executor := NewExecutor(testLogger(), store, WithNotifier(sink))
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	run := Run{ID: "run-1", WorkflowID: "wf-1", Event: models.TriggerLeadCreated}

	summary := executor.Execute(t.Context(), run, models.Actions{
		models.SendNotification{Message: "New lead {{name}} ({{status}})"},
		models.SendNotification{},
	}, lead.Record())
	assert.Equal(t, Summary{Succeeded: 2}, summary)

	require.Len(t, sink.notifications, 2)
	assert.Equal(t, notify.Notification{
		WorkflowID: "wf-1",
		RunID:      "run-1",
		Trigger:    "lead_created",
		Entity:     "lead",
		RecordID:   lead.ID,
		Message:    "New lead Acme (new)",
	}, sink.notifications[0])
	assert.Equal(t, DefaultNotification, sink.notifications[1].Message)
}

func TestExecutor_SendEmail(t *testing.T) {
	store := newTestStore(t)
	sink := &recordingSink{}
	executor := NewExecutor(testLogger(), store, WithMailer(sink))

	record := models.Record{"id": int64(3), "name": "Ada", "email": "ada@example.test"}

	summary := executor.Execute(t.Context(), Run{WorkflowID: "wf"}, models.Actions{
		models.SendEmail{Subject: "Hi {{name}}", Message: "Welcome {{name}}"},
		models.SendEmail{To: "sales@example.test"},
	}, record)
	assert.Equal(t, Summary{Succeeded: 2}, summary)

	require.Len(t, sink.emails, 2)
	assert.Equal(t, "ada@example.test", sink.emails[0].To)
	assert.Equal(t, "Hi Ada", sink.emails[0].Subject)
	assert.Equal(t, "Welcome Ada", sink.emails[0].Body)
	assert.Equal(t, "sales@example.test", sink.emails[1].To)
	assert.Equal(t, DefaultEmailSubject, sink.emails[1].Subject)

	summary = executor.Execute(t.Context(), Run{}, models.Actions{models.SendEmail{Message: "x"}},
		models.Record{"id": int64(3)})
	assert.Equal(t, Summary{Failed: 1}, summary)
	assert.Len(t, sink.emails, 2)
}

func TestExecutor_SendEmailUnresolvedRecipient(t *testing.T) {
	store := newTestStore(t)
	sink := &recordingSink{}
	executor := NewExecutor(testLogger(), store, WithMailer(sink))

	owner := models.SendEmail{To: "{{owner_email}}", Message: "m"}

	summary := executor.Execute(t.Context(), Run{}, models.Actions{owner},
		models.Record{"id": int64(3), "email": "ada@example.test"})
	assert.Equal(t, Summary{Succeeded: 1}, summary)
	require.Len(t, sink.emails, 1)
	assert.Equal(t, "ada@example.test", sink.emails[0].To)

	summary = executor.Execute(t.Context(), Run{}, models.Actions{owner}, models.Record{"id": int64(3)})
	assert.Equal(t, Summary{Failed: 1}, summary)
	assert.Len(t, sink.emails, 1, "no mail may go to a literal placeholder")
}

func TestExecutor_SinkErrorsAndPanics(t *testing.T) {
	store := newTestStore(t)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	failing := NewExecutor(testLogger(), store, WithNotifier(&recordingSink{err: errors.New("broker down")}))
	summary := failing.Execute(t.Context(), Run{}, models.Actions{
		models.SendNotification{},
		models.UpdateStatus{Status: "contacted"},
	}, lead.Record())
	assert.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)

	panicking := NewExecutor(testLogger(), store, WithNotifier(&recordingSink{panicMessage: "boom"}))
	summary = panicking.Execute(t.Context(), Run{}, models.Actions{
		models.SendNotification{},
		models.UpdateStatus{Status: "qualified"},
	}, lead.Record())
	assert.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)

	stored, err := store.LeadRepository().GetByID(t.Context(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "qualified", stored.Status)
}

func TestExecutor_ActionTimeout(t *testing.T) {
	store := newTestStore(t)
	lead := createLead(t, store, &models.Lead{Name: "Acme", Email: "ops@acme.test"})

	executor := NewExecutor(testLogger(), store,
		WithNotifier(&recordingSink{block: time.Second}),
		WithActionTimeout(20*time.Millisecond))

	started := time.Now()
	summary := executor.Execute(t.Context(), Run{}, models.Actions{
		models.SendNotification{},
		models.UpdateStatus{Status: "contacted"},
	}, lead.Record())

	assert.Less(t, time.Since(started), 500*time.Millisecond)
	assert.Equal(t, Summary{Succeeded: 1, Failed: 1}, summary)
}
