package repository

import (
	"context"
	"errors"

	"github.com/gatewell-labs/formgate/internal/models"
)

var ErrLeadNotFound = errors.New("lead not found")

// LeadStore persists accepted submissions. The pipeline only ever appends;
// reads exist for operator tooling.
type LeadStore interface {
	CreateLead(ctx context.Context, lead *models.Lead) error
	GetLeadByID(ctx context.Context, id string) (*models.Lead, error)
	ListLeads(ctx context.Context, endpoint string, limit int) ([]*models.Lead, error)
	Close()
}
