package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/clearterms/contract-cli/internal/company"
	"github.com/clearterms/contract-cli/internal/model"
	"github.com/clearterms/contract-cli/pkg/gcal"
	"github.com/clearterms/contract-cli/pkg/mailer"
)

// SendNotifications dispatches the summary email and calendar invites in
// parallel. The two channels are independent: a failure on one is recorded
// in the results and never blocks the other.
func SendNotifications(ctx context.Context, state model.AnalysisState, mail mailer.Client, calendar gcal.Client) model.AnalysisState {
	var emailResult, calendarResult string

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if state.SummaryFile == "" {
			return nil
		}
		result, err := sendSummaryEmail(state, mail)
		if err != nil {
			zap.L().Warn("pipeline: summary email failed", zap.Error(err))
			emailResult = "Email error: " + err.Error()
			return nil
		}
		emailResult = result
		return nil
	})

	g.Go(func() error {
		if state.Mode != model.ModeCreator || state.CalendarFile == "" {
			return nil
		}
		result, err := sendCalendarInvites(gCtx, state, calendar)
		if err != nil {
			zap.L().Warn("pipeline: calendar invites failed", zap.Error(err))
			calendarResult = "Calendar error: " + err.Error()
			return nil
		}
		calendarResult = result
		return nil
	})

	_ = g.Wait()

	if emailResult != "" {
		state.NotificationResults = append(state.NotificationResults, emailResult)
	}
	if calendarResult != "" {
		state.NotificationResults = append(state.NotificationResults, calendarResult)
	}
	return state
}

// sendSummaryEmail mails the summary artifact with a dated subject line.
func sendSummaryEmail(state model.AnalysisState, mail mailer.Client) (string, error) {
	data, err := os.ReadFile(state.SummaryFile)
	if err != nil {
		return "", err
	}
	body := stripMarkdownFence(string(data))

	today := time.Now().Format("2006-01-02")
	subject := "Contract Summary - " + today
	if state.CompanyName != "" && state.CompanyName != company.UnknownCompany {
		subject += " - " + state.CompanyName
	}

	if err := mail.Send(state.UserEmail, subject, body); err != nil {
		return "", err
	}
	return "Email sent to " + state.UserEmail, nil
}

// sendCalendarInvites creates one event per stored deliverable, skipping
// entries without a title or date.
func sendCalendarInvites(ctx context.Context, state model.AnalysisState, calendar gcal.Client) (string, error) {
	data, err := os.ReadFile(state.CalendarFile)
	if err != nil {
		return "", err
	}

	var deliverables []model.Deliverable
	if err := json.Unmarshal(data, &deliverables); err != nil {
		return "", err
	}
	if len(deliverables) == 0 {
		return "No deliverables to process", nil
	}

	var created, existing int
	for _, d := range deliverables {
		if d.Summary == "" || d.StartDate == "" {
			zap.L().Debug("pipeline: skipping undated deliverable", zap.String("summary", d.Summary))
			continue
		}

		status, err := calendar.CreateEvent(ctx, gcal.Event{
			Summary:       d.Summary,
			Description:   d.Description,
			StartDate:     d.StartDate,
			StartTime:     d.StartTime,
			AttendeeEmail: state.UserEmail,
		})
		if err != nil {
			zap.L().Warn("pipeline: event creation failed",
				zap.String("summary", d.Summary), zap.Error(err))
			continue
		}
		switch status {
		case gcal.StatusCreated:
			created++
		case gcal.StatusDuplicate:
			existing++
		}
	}

	return fmt.Sprintf("Calendar: %d events created", created), nil
}
