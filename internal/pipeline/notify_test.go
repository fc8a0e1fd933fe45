package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearterms/contract-cli/internal/company"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/pkg/gcal"
)

func writeTestSummary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "summary.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeTestCalendar(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calendar.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSendNotifications_EmailWithCompanySubject(t *testing.T) {
	mail := new(mockMailerClient)
	mail.On("Send", "user@example.com", mock.MatchedBy(func(subject string) bool {
		return strings.Contains(subject, "Contract Summary -") && strings.Contains(subject, "Acme Corp")
	}), "## Summary\nBody.").Return(nil)
	calendar := new(mockCalendarClient)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeLegal)
	state.CompanyName = "Acme Corp"
	state.SummaryFile = writeTestSummary(t, "## Summary\nBody.")

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 1)
	assert.Equal(t, "Email sent to user@example.com", next.NotificationResults[0])
	mail.AssertExpectations(t)
	calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestSendNotifications_UnknownCompanyOmittedFromSubject(t *testing.T) {
	mail := new(mockMailerClient)
	mail.On("Send", "user@example.com", mock.MatchedBy(func(subject string) bool {
		return !strings.Contains(subject, company.UnknownCompany)
	}), mock.Anything).Return(nil)
	calendar := new(mockCalendarClient)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeLegal)
	state.CompanyName = company.UnknownCompany
	state.SummaryFile = writeTestSummary(t, "## Summary")

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 1)
	mail.AssertExpectations(t)
}

func TestSendNotifications_CalendarInvites(t *testing.T) {
	mail := new(mockMailerClient)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	calendar := new(mockCalendarClient)
	calendar.On("CreateEvent", mock.Anything, mock.MatchedBy(func(ev gcal.Event) bool {
		return ev.Summary == "Reel Due" && ev.StartDate == "2025-12-01" && ev.StartTime == "17:00"
	})).Return(gcal.StatusCreated, nil)
	calendar.On("CreateEvent", mock.Anything, mock.MatchedBy(func(ev gcal.Event) bool {
		return ev.Summary == "Stories Due"
	})).Return(gcal.StatusDuplicate, nil)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeCreator)
	state.SummaryFile = writeTestSummary(t, "## Summary")
	state.CalendarFile = writeTestCalendar(t, `[
		{"summary": "Reel Due", "description": "reel", "start_date": "2025-12-01", "start_time": "17:00", "user_email": "user@example.com"},
		{"summary": "Stories Due", "description": "stories", "start_date": "2025-12-05", "user_email": "user@example.com"},
		{"summary": "", "description": "undated", "start_date": "", "user_email": "user@example.com"}
	]`)

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 2)
	assert.Equal(t, "Email sent to user@example.com", next.NotificationResults[0])
	assert.Equal(t, "Calendar: 1 events created", next.NotificationResults[1])
	calendar.AssertNumberOfCalls(t, "CreateEvent", 2)
}

func TestSendNotifications_EmailFailureDoesNotBlockCalendar(t *testing.T) {
	mail := new(mockMailerClient)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp auth failed"))

	calendar := new(mockCalendarClient)
	calendar.On("CreateEvent", mock.Anything, mock.Anything).Return(gcal.StatusCreated, nil)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeCreator)
	state.SummaryFile = writeTestSummary(t, "## Summary")
	state.CalendarFile = writeTestCalendar(t, `[{"summary": "Reel Due", "start_date": "2025-12-01", "user_email": "user@example.com"}]`)

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 2)
	assert.Contains(t, next.NotificationResults[0], "Email error: smtp auth failed")
	assert.Equal(t, "Calendar: 1 events created", next.NotificationResults[1])
}

func TestSendNotifications_MissingSummaryFileDoesNotBlockCalendar(t *testing.T) {
	mail := new(mockMailerClient)

	calendar := new(mockCalendarClient)
	calendar.On("CreateEvent", mock.Anything, mock.Anything).Return(gcal.StatusCreated, nil)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeCreator)
	state.SummaryFile = filepath.Join(t.TempDir(), "no-such-summary.md")
	state.CalendarFile = writeTestCalendar(t, `[{"summary": "Reel Due", "start_date": "2025-12-01", "user_email": "user@example.com"}]`)

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 2)
	assert.Contains(t, next.NotificationResults[0], "Email error:")
	assert.Equal(t, "Calendar: 1 events created", next.NotificationResults[1])
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNotifications_CalendarOnly(t *testing.T) {
	mail := new(mockMailerClient)
	calendar := new(mockCalendarClient)
	calendar.On("CreateEvent", mock.Anything, mock.Anything).Return(gcal.StatusCreated, nil)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeCreator)
	state.CalendarFile = writeTestCalendar(t, `[{"summary": "Reel Due", "start_date": "2025-12-01", "user_email": "user@example.com"}]`)

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 1)
	assert.Equal(t, "Calendar: 1 events created", next.NotificationResults[0])
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendNotifications_LegalModeSkipsCalendar(t *testing.T) {
	mail := new(mockMailerClient)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	calendar := new(mockCalendarClient)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeLegal)
	state.SummaryFile = writeTestSummary(t, "## Summary")
	state.CalendarFile = writeTestCalendar(t, `[{"summary": "X", "start_date": "2025-12-01"}]`)

	next := SendNotifications(context.Background(), state, mail, calendar)
	require.Len(t, next.NotificationResults, 1)
	calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything)
}

func TestSendNotifications_NothingToSend(t *testing.T) {
	mail := new(mockMailerClient)
	calendar := new(mockCalendarClient)

	state := model.NewAnalysisState("text", "user@example.com", model.ModeLegal)

	next := SendNotifications(context.Background(), state, mail, calendar)
	assert.Empty(t, next.NotificationResults)
	mail.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}
