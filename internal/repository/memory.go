package repository

import (
	"context"
	"sync"

	"github.com/gatewell-labs/formgate/internal/models"
)

// InMemoryStore is the default LeadStore for tests and single-instance
// deployments. Leads are lost on restart.
type InMemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*models.Lead
	order []string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		leads: make(map[string]*models.Lead),
	}
}

func (s *InMemoryStore) CreateLead(ctx context.Context, lead *models.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.leads[lead.ID] = lead
	s.order = append(s.order, lead.ID)
	return nil
}

func (s *InMemoryStore) GetLeadByID(ctx context.Context, id string) (*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, exists := s.leads[id]
	if !exists {
		return nil, ErrLeadNotFound
	}
	return lead, nil
}

// ListLeads returns newest-first, optionally filtered by endpoint.
func (s *InMemoryStore) ListLeads(ctx context.Context, endpoint string, limit int) ([]*models.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Lead
	for i := len(s.order) - 1; i >= 0; i-- {
		lead := s.leads[s.order[i]]
		if endpoint != "" && lead.Endpoint != endpoint {
			continue
		}
		result = append(result, lead)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (s *InMemoryStore) Close() {}
