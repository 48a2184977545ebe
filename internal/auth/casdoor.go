package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/SAP-F-2025/clinic-service/internal/config"
	"github.com/SAP-F-2025/clinic-service/internal/models"
)

// CasdoorVerifier accepts tokens issued by a Casdoor instance
type CasdoorVerifier struct {
	client *casdoorsdk.Client
}

func NewCasdoorVerifier(cfg config.CasdoorConfig) *CasdoorVerifier {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorVerifier{client: client}
}

func (v *CasdoorVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	claims, err := v.client.ParseJwtToken(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadToken, err)
	}
	if claims.User.Email == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrBadToken)
	}

	name := claims.User.DisplayName
	if name == "" {
		name = claims.User.Name
	}

	return &Identity{
		UserID:   claims.Id,
		Email:    strings.ToLower(claims.User.Email),
		Name:     name,
		Role:     MapCasdoorRole(claims.User.Type),
		External: true,
	}, nil
}

// MapCasdoorRole maps Casdoor user type to internal role
func MapCasdoorRole(casdoorType string) models.UserRole {
	switch strings.ToLower(casdoorType) {
	case "admin", "administrator":
		return models.RoleAdmin
	case "doctor", "physician", "practitioner":
		return models.RoleDoctor
	default:
		return models.RolePatient
	}
}
