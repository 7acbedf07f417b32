package client_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thappy/go-session/client"
)

func TestCreateClientProfileValidatesBeforeSending(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	c := client.New(backend.server.URL)
	_, err := c.CreateClientProfile(ctx, client.CreateClientProfileRequest{
		FirstName: "Ada",
		Phone:     "+12128675309",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "last_name is required")
	assert.Zero(t, backend.requestCount())
}

func TestCreateClientProfileRejectsBadPhone(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	c := client.New(backend.server.URL)
	_, err := c.CreateClientProfile(ctx, client.CreateClientProfileRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "12",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid phone format")
	assert.Zero(t, backend.requestCount())
}

func TestCreateClientProfile(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	userID := uuid.New()
	backend.respond(client.EndpointClientProfile, http.StatusCreated,
		`{"profile":{"user_id":"`+userID.String()+`","first_name":"Ada","last_name":"Lovelace","phone":"+12128675309"}}`)

	c := client.New(backend.server.URL)
	profile, err := c.CreateClientProfile(ctx, client.CreateClientProfileRequest{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Phone:     "+12128675309",
	})
	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, "Ada", profile.FirstName)

	req := backend.lastRequest(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, client.EndpointClientProfile, req.Path)
}

func TestClientProfileFetch(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	userID := uuid.New()
	backend.respond(client.EndpointClientProfileGet, http.StatusOK,
		`{"profile":{"user_id":"`+userID.String()+`","first_name":"Ada","last_name":"Lovelace"}}`)

	c := client.New(backend.server.URL)
	profile, err := c.ClientProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, profile.UserID)
	assert.Equal(t, http.MethodGet, backend.lastRequest(t).Method)
}

func TestUpdateClientContactInfo(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	backend.respond(client.EndpointClientContactInfo, http.StatusOK,
		`{"profile":{"user_id":"`+uuid.New().String()+`","phone":"+12128675309"}}`)

	c := client.New(backend.server.URL)
	profile, err := c.UpdateClientContactInfo(ctx, client.UpdateContactInfoRequest{
		Phone: "+12128675309",
	})
	require.NoError(t, err)
	assert.Equal(t, "+12128675309", profile.Phone)
	assert.Equal(t, http.MethodPut, backend.lastRequest(t).Method)
}

func TestTherapistsAccepting(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)

	backend.respond(client.EndpointTherapistsAccepting, http.StatusOK,
		`{"therapists":[{"user_id":"`+uuid.New().String()+`","first_name":"Grace","accepting_clients":true},{"user_id":"`+uuid.New().String()+`","first_name":"Alan","accepting_clients":true}]}`)

	c := client.New(backend.server.URL)
	therapists, err := c.TherapistsAccepting(ctx)
	require.NoError(t, err)
	require.Len(t, therapists, 2)
	assert.Equal(t, "Grace", therapists[0].FirstName)
	assert.True(t, therapists[0].AcceptingClients)
}
