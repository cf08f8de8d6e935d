// Package service implements the business effect behind a fully-cleared
// submission: categorize it, persist the lead, and dispatch notifications.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gatewell-labs/formgate/internal/dispatch"
	"github.com/gatewell-labs/formgate/internal/logging"
	"github.com/gatewell-labs/formgate/internal/metrics"
	"github.com/gatewell-labs/formgate/internal/models"
	"github.com/gatewell-labs/formgate/internal/repository"
)

// SubmissionService is the action executor. It runs only after every
// defense stage has passed, so its input is well-typed and sanitized.
type SubmissionService struct {
	store   repository.LeadStore
	channel dispatch.Channel
	timeout time.Duration
	logger  *logging.Logger
}

func NewSubmissionService(store repository.LeadStore, channel dispatch.Channel, timeout time.Duration, logger *logging.Logger) *SubmissionService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SubmissionService{
		store:   store,
		channel: channel,
		timeout: timeout,
		logger:  logger,
	}
}

// Execute persists the submission as a lead and dispatches it. Dispatch has
// a bounded timeout; its failure surfaces as an error but never unwinds
// state already committed upstream (the rate-limit slot stays spent).
func (s *SubmissionService) Execute(ctx context.Context, endpoint string, values map[string]any) (*models.SubmissionResult, error) {
	now := time.Now().UTC()
	category := Categorize(endpoint, values)

	lead := &models.Lead{
		ID:        uuid.New().String(),
		Endpoint:  endpoint,
		Name:      stringValue(values, "name", "contactName"),
		Email:     stringValue(values, "email"),
		Category:  category,
		Payload:   values,
		CreatedAt: now,
	}

	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("persist lead: %w", err)
	}
	metrics.LeadsStored.Inc()

	sub := &dispatch.Submission{
		ID:         lead.ID,
		Endpoint:   endpoint,
		Category:   category,
		Fields:     values,
		ReceivedAt: now,
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.channel.Send(sendCtx, sub); err != nil {
		return nil, fmt.Errorf("dispatch submission: %w", err)
	}

	s.logger.InfoContext(ctx, "submission accepted",
		logging.Endpoint(endpoint),
		logging.LeadID(lead.ID),
		logging.Category(category),
	)

	return &models.SubmissionResult{ID: lead.ID, Category: category}, nil
}

// Category keywords for contact messages, checked in order.
var contactCategories = []struct {
	name     string
	keywords []string
}{
	{"booking", []string{"book", "reserve", "availab", "date", "schedule", "tour"}},
	{"pricing", []string{"price", "pricing", "cost", "quote", "budget", "rate", "package"}},
	{"support", []string{"problem", "issue", "help", "refund", "cancel", "complaint"}},
}

// Categorize derives an inquiry category from the payload. Contact messages
// are classified by keyword; quote and vendor forms already carry their
// category as a field.
func Categorize(endpoint string, values map[string]any) string {
	switch endpoint {
	case "contact":
		message := strings.ToLower(stringValue(values, "message"))
		for _, c := range contactCategories {
			for _, kw := range c.keywords {
				if strings.Contains(message, kw) {
					return c.name
				}
			}
		}
		return "general"
	case "quote":
		return stringValue(values, "eventType")
	case "vendor":
		return stringValue(values, "category")
	default:
		return ""
	}
}

func stringValue(values map[string]any, names ...string) string {
	for _, name := range names {
		if s, ok := values[name].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
