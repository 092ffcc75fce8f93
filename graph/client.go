// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"github.com/danielhkuo/staff-directory/reconcile"
)

const (
	DefaultBaseURL = "https://graph.microsoft.com/v1.0"
	defaultScope   = "https://graph.microsoft.com/.default"
	pageSize       = 999
	requestTimeout = 30 * time.Second
)

// userFields are the Graph user properties requested in $select.
var userFields = []string{
	"id", "displayName", "givenName", "surname", "mail", "userPrincipalName",
	"jobTitle", "department", "businessPhones", "officeLocation", "companyName",
	"userType", "accountEnabled",
}

// Credentials identify an Azure AD application with User.Read.All.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Client reads users from Microsoft Graph.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a client that authenticates with the OAuth2
// client-credentials flow against the tenant's Azure AD token endpoint.
func NewClient(ctx context.Context, creds Credentials) (*Client, error) {
	if creds.TenantID == "" || creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("graph credentials are incomplete")
	}

	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     microsoft.AzureADEndpoint(creds.TenantID).TokenURL,
		Scopes:       []string{defaultScope},
	}

	httpClient := conf.Client(ctx)
	httpClient.Timeout = requestTimeout
	return NewClientWithHTTP(httpClient, DefaultBaseURL), nil
}

// NewClientWithHTTP uses an already-authenticated HTTP client.
func NewClientWithHTTP(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

type usersPage struct {
	Value    []reconcile.User `json:"value"`
	NextLink string           `json:"@odata.nextLink"`
}

// ListUsers fetches every user, following @odata.nextLink across pages.
func (c *Client) ListUsers(ctx context.Context) ([]reconcile.User, error) {
	params := url.Values{}
	params.Set("$select", strings.Join(userFields, ","))
	params.Set("$top", fmt.Sprint(pageSize))
	next := c.baseURL + "/users?" + params.Encode()

	users := []reconcile.User{}
	for next != "" {
		page, err := c.getPage(ctx, next)
		if err != nil {
			return nil, err
		}
		users = append(users, page.Value...)
		next = page.NextLink
	}
	return users, nil
}

func (c *Client) getPage(ctx context.Context, pageURL string) (*usersPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("graph returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var page usersPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode graph users: %w", err)
	}
	return &page, nil
}
