// Package client defines clients and their contacts, plus the activity
// classifier that flags relationships gone quiet.
package client

import (
	"context"
	"strings"
	"time"

	"github.com/vperelman/dealflow/pkg/errors"
	"github.com/vperelman/dealflow/pkg/types/common"
)

// Contact is a named person at a client.
type Contact struct {
	ID    common.ID `json:"id"`
	Name  string    `json:"name"`
	Role  string    `json:"role,omitempty"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
}

// Client is an organisation deals are tracked against.
type Client struct {
	ID      common.ID     `json:"id"`
	OwnerID common.UserID `json:"owner_id"`
	Name    string        `json:"name"`
	Email   string        `json:"email,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Notes   string        `json:"notes,omitempty"`

	Contacts []Contact `json:"contacts"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a client with an empty contact list.
func New(ownerID common.UserID, name string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Validation("client name is required")
	}

	now := time.Now().UTC()
	return &Client{
		ID:        common.NewID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(name),
		Contacts:  []Contact{},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddContact appends a contact and returns it.
func (c *Client) AddContact(name, role, email, phone string) (*Contact, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.Validation("contact name is required")
	}
	contact := Contact{
		ID:    common.NewID(),
		Name:  strings.TrimSpace(name),
		Role:  strings.TrimSpace(role),
		Email: strings.TrimSpace(email),
		Phone: strings.TrimSpace(phone),
	}
	c.Contacts = append(c.Contacts, contact)
	c.UpdatedAt = time.Now().UTC()
	return &contact, nil
}

// Repository is the persistence port for clients.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	FindByID(ctx context.Context, id common.ID) (*Client, error)
	FindAll(ctx context.Context, ownerID common.UserID, pagination *common.Pagination) ([]*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, id common.ID) error
}
