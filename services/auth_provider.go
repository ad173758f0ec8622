// services/auth_provider.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dushop/dushop_backend/config"
	"github.com/dushop/dushop_backend/models"
)

// AccountGateway is the adapter to the hosted user-directory service.
// Signup and login pass straight through; EmailIsRegistered gates OTP
// issuance when the deployment requires known accounts.
type AccountGateway interface {
	SignUp(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	EmailIsRegistered(ctx context.Context, email string) (bool, error)
}

// AuthProvider talks to the hosted auth API and mirrors successful signups
// into the local customers collection, which backs EmailIsRegistered.
type AuthProvider struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	customers *mongo.Collection
}

// NewAuthProvider creates the provider adapter.
func NewAuthProvider(cfg *config.Config, db *mongo.Client) *AuthProvider {
	if cfg.AuthAPIURL == "" || cfg.AuthAPIKey == "" {
		log.Printf("WARNING: auth provider not fully configured:")
		if cfg.AuthAPIURL == "" {
			log.Printf("  - AUTH_API_URL is missing")
		}
		if cfg.AuthAPIKey == "" {
			log.Printf("  - AUTH_API_KEY is missing")
		}
		log.Printf("Sign-up and login will fail until these are set")
	}

	return &AuthProvider{
		baseURL: cfg.AuthAPIURL,
		apiKey:  cfg.AuthAPIKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		customers: config.GetCollection(db, cfg, "customers"),
	}
}

// providerResponse is the subset of the hosted auth API's reply we use.
type providerResponse struct {
	User *struct {
		ID string `json:"id"`
	} `json:"user"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

func (p *providerResponse) message() string {
	switch {
	case p.ErrorDescription != "":
		return p.ErrorDescription
	case p.Msg != "":
		return p.Msg
	case p.Error != "":
		return p.Error
	}
	return "auth provider rejected the request"
}

// makeRequest performs an HTTP request to the hosted auth API.
func (p *AuthProvider) makeRequest(ctx context.Context, endpoint string, payload interface{}) (*providerResponse, int, error) {
	if p.baseURL == "" || p.apiKey == "" {
		return nil, 0, fmt.Errorf("missing auth provider credentials. Please set AUTH_API_URL and AUTH_API_KEY environment variables")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reach auth provider: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed providerResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return &parsed, resp.StatusCode, nil
}

// SignUp registers the user with the hosted auth provider and mirrors the
// new account into the customers collection.
func (p *AuthProvider) SignUp(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error) {
	payload := map[string]interface{}{
		"email":    req.Email,
		"password": req.Password,
		"data": map[string]string{
			"full_name": req.FullName,
		},
	}

	resp, status, err := p.makeRequest(ctx, "/signup", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	if status != http.StatusOK || resp.User == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrUpstream, resp.message())
	}

	customer := models.Customer{
		Name:      req.FullName,
		Email:     req.Email,
		UserID:    resp.User.ID,
		CreatedAt: time.Now(),
	}
	if _, err := p.customers.InsertOne(ctx, customer); err != nil {
		return nil, fmt.Errorf("%w: failed to record customer: %v", models.ErrUpstream, err)
	}

	return &models.AuthResult{Success: true, UserID: resp.User.ID}, nil
}

// Login authenticates the user against the hosted auth provider. A rejected
// credential is not an error here; the result carries the provider's message.
func (p *AuthProvider) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	payload := map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}

	resp, status, err := p.makeRequest(ctx, "/token?grant_type=password", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	if status != http.StatusOK || resp.User == nil {
		return &models.AuthResult{Success: false, Error: resp.message()}, nil
	}

	return &models.AuthResult{Success: true, UserID: resp.User.ID}, nil
}

// EmailIsRegistered reports whether the email belongs to a known customer.
func (p *AuthProvider) EmailIsRegistered(ctx context.Context, email string) (bool, error) {
	count, err := p.customers.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
