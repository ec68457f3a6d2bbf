package pipeline

import (
	"context"
	"time"

	"github.com/vperelman/dealflow/internal/domain/client"
	"github.com/vperelman/dealflow/internal/domain/deal"
	"github.com/vperelman/dealflow/internal/infrastructure/monitoring/logging"
	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// ClientWithActivity pairs a client with its computed activity
// classification.
type ClientWithActivity struct {
	Client   *client.Client  `json:"client"`
	Activity client.Activity `json:"activity"`
}

// ClientService manages clients and their activity classification.
type ClientService interface {
	Create(ctx context.Context, ownerID common.UserID, name string) (*client.Client, error)
	GetByID(ctx context.Context, id common.ID) (*ClientWithActivity, error)
	List(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*ClientWithActivity, error)
	AddContact(ctx context.Context, in AddContactInput) (*client.Client, error)
	Rename(ctx context.Context, id common.ID, name string) (*client.Client, error)
	Delete(ctx context.Context, id common.ID) error
}

// AddContactInput carries a new contact person for a client.
type AddContactInput struct {
	ClientID common.ID
	Name     string
	Role     string
	Email    string
	Phone    string
}

type clientService struct {
	clients client.Repository
	deals   deal.Repository
	now     func() time.Time
	logger  logging.Logger
}

// NewClientService wires a ClientService.  Activity is classified against
// the client's full deal history, decided deals included.
func NewClientService(clients client.Repository, deals deal.Repository, log logging.Logger) ClientService {
	return &clientService{
		clients: clients,
		deals:   deals,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log.Named("pipeline.clients"),
	}
}

func (s *clientService) Create(ctx context.Context, ownerID common.UserID, name string) (*client.Client, error) {
	c, err := client.New(ownerID, name)
	if err != nil {
		return nil, err
	}
	if err := s.clients.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *clientService) GetByID(ctx context.Context, id common.ID) (*ClientWithActivity, error) {
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	deals, err := s.deals.FindByClientID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ClientWithActivity{
		Client:   c,
		Activity: client.ClassifyActivity(deals, s.now()),
	}, nil
}

func (s *clientService) List(ctx context.Context, ownerID common.UserID, p *common.Pagination) ([]*ClientWithActivity, error) {
	clients, err := s.clients.FindAll(ctx, ownerID, p)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*ClientWithActivity, 0, len(clients))
	for _, c := range clients {
		deals, err := s.deals.FindByClientID(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &ClientWithActivity{
			Client:   c,
			Activity: client.ClassifyActivity(deals, now),
		})
	}
	return out, nil
}

func (s *clientService) AddContact(ctx context.Context, in AddContactInput) (*client.Client, error) {
	c, err := s.clients.FindByID(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	if _, err := c.AddContact(in.Name, in.Role, in.Email, in.Phone); err != nil {
		return nil, err
	}
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *clientService) Rename(ctx context.Context, id common.ID, name string) (*client.Client, error) {
	if name == "" {
		return nil, errors.Validation("client name is required")
	}
	c, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.UpdatedAt = time.Now().UTC()
	if err := s.clients.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *clientService) Delete(ctx context.Context, id common.ID) error {
	// The deals FK cascades, so removing a client takes its deals with it.
	err := s.clients.Delete(ctx, id)
	if err != nil {
		s.logger.Warn("client delete failed",
			logging.String("client_id", string(id)),
			logging.Err(err),
		)
	}
	return err
}
