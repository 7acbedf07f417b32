package client

import (
	"context"
	"net/http"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	session "github.com/thappy/go-session"
)

// ClientProfile is a therapy client's profile record.
type ClientProfile struct {
	UserID           uuid.UUID  `json:"user_id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Phone            string     `json:"phone"`
	EmergencyContact string     `json:"emergency_contact"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	TherapistID      *uuid.UUID `json:"therapist_id"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TherapistProfile is a therapist's public profile record.
type TherapistProfile struct {
	UserID           uuid.UUID `json:"user_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	LicenseNumber    string    `json:"license_number"`
	Phone            string    `json:"phone"`
	Bio              string    `json:"bio"`
	Specializations  []string  `json:"specializations"`
	AcceptingClients bool      `json:"accepting_clients"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateClientProfileRequest creates the client profile after signup.
type CreateClientProfileRequest struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// Validate mirrors the backend's profile validation.
func (r CreateClientProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName,
			validation.Required.Error("first_name is required"),
		),
		validation.Field(&r.LastName,
			validation.Required.Error("last_name is required"),
		),
		validation.Field(&r.Phone,
			validation.By(session.PhoneRule),
		),
	)
}

// UpdateContactInfoRequest updates the client profile's contact fields.
type UpdateContactInfoRequest struct {
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// Validate mirrors the backend's contact-info validation.
func (r UpdateContactInfoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Phone,
			validation.By(session.PhoneRule),
		),
	)
}

type clientProfileResponse struct {
	apiEnvelope
	Profile *ClientProfile `json:"profile"`
}

type therapistsResponse struct {
	apiEnvelope
	Therapists []TherapistProfile `json:"therapists"`
}

// CreateClientProfile creates the authenticated client's profile.
func (c *Client) CreateClientProfile(ctx context.Context, req CreateClientProfileRequest) (*ClientProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &clientProfileResponse{}
	if err := c.do(ctx, http.MethodPost, EndpointClientProfile, req, out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// ClientProfile fetches the authenticated client's profile.
func (c *Client) ClientProfile(ctx context.Context) (*ClientProfile, error) {
	out := &clientProfileResponse{}
	if err := c.do(ctx, http.MethodGet, EndpointClientProfileGet, nil, out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// UpdateClientContactInfo updates the authenticated client's contact info.
func (c *Client) UpdateClientContactInfo(ctx context.Context, req UpdateContactInfoRequest) (*ClientProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	out := &clientProfileResponse{}
	if err := c.do(ctx, http.MethodPut, EndpointClientContactInfo, req, out); err != nil {
		return nil, err
	}
	return out.Profile, nil
}

// TherapistsAccepting lists therapists currently accepting new clients.
// Public; no token required.
func (c *Client) TherapistsAccepting(ctx context.Context) ([]TherapistProfile, error) {
	out := &therapistsResponse{}
	if err := c.do(ctx, http.MethodGet, EndpointTherapistsAccepting, nil, out); err != nil {
		return nil, err
	}
	return out.Therapists, nil
}
