// Package auth verifies identity tokens issued by the federated sign-in provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/phantomcommerce/phantom-backend/config"
	"github.com/phantomcommerce/phantom-backend/pkg/logger"
	"google.golang.org/api/option"
)

const defaultVerifyTimeout = 5 * time.Second

var (
	ErrVerifierUnavailable = errors.New("federated sign-in is not configured")
	ErrInvalidIDToken      = errors.New("invalid federated id token")
	ErrMissingEmail        = errors.New("federated identity has no email")
	ErrUnverifiedEmail     = errors.New("federated identity email is not verified")
)

// Identity is what the storefront keeps from a verified federated token.
type Identity struct {
	UID      string
	Email    string
	Name     string
	PhotoURL string
	Provider string
}

// IdentityVerifier turns a client-side ID token into an Identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseauth.Token, error)
}

// FirebaseVerifier checks ID tokens with the Firebase Admin SDK.
type FirebaseVerifier struct {
	client  tokenVerifier
	timeout time.Duration
}

// NewFirebaseVerifier initialises the Admin SDK for cfg.ProjectID.
func NewFirebaseVerifier(ctx context.Context, cfg config.FirebaseConfig) (*FirebaseVerifier, error) {
	if cfg.ProjectID == "" {
		return nil, ErrVerifierUnavailable
	}

	var clientOpts []option.ClientOption
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialise firebase auth client: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}

	logger.Info("Firebase verifier enabled", map[string]interface{}{
		"project_id": cfg.ProjectID,
	})

	return &FirebaseVerifier{client: client, timeout: timeout}, nil
}

func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if v == nil || v.client == nil {
		return nil, ErrVerifierUnavailable
	}
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidIDToken
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	token, err := v.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		logger.Warn("Federated token verification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}

	return identityFromToken(token)
}

// identityFromToken only accepts verified emails: accounts are linked by
// email, so an unverified address could claim someone else's account.
func identityFromToken(token *firebaseauth.Token) (*Identity, error) {
	email, _ := token.Claims["email"].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}
	if verified, _ := token.Claims["email_verified"].(bool); !verified {
		logger.Warn("Federated identity with unverified email rejected", map[string]interface{}{
			"uid":      token.UID,
			"provider": token.Firebase.SignInProvider,
		})
		return nil, ErrUnverifiedEmail
	}
	name, _ := token.Claims["name"].(string)
	picture, _ := token.Claims["picture"].(string)

	return &Identity{
		UID:      token.UID,
		Email:    strings.ToLower(email),
		Name:     name,
		PhotoURL: picture,
		Provider: providerName(token.Firebase.SignInProvider),
	}, nil
}

// providerName strips the ".com" suffix Firebase puts on provider ids.
func providerName(signInProvider string) string {
	p := strings.TrimSuffix(signInProvider, ".com")
	if p == "" {
		return "google"
	}
	return p
}
