package auth

import (
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/db"
	"github.com/go-playground/validator/v10"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct {
}

var validate = validator.New()

// RegisterRequest defines the payload for registering a device installation
type RegisterRequest struct {
	Platform   string `json:"platform" validate:"required,oneof=ios android web"`
	AppVersion string `json:"app_version" validate:"max=32"`
}

// RegisterResponse returns the installation identity and its bearer token
type RegisterResponse struct {
	InstallationID string `json:"installation_id"`
	Token          string `json:"token"`
	TermsAccepted  bool   `json:"terms_accepted"`
}

// InstallationStatus is the profile view of an installation
type InstallationStatus struct {
	InstallationID string     `json:"installation_id"`
	Platform       string     `json:"platform"`
	AppVersion     string     `json:"app_version"`
	TermsAccepted  bool       `json:"terms_accepted"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// RegisterHandler creates an anonymous installation and issues its token
func (c Controller) RegisterHandler(request *evo.Request) any {
	var input RegisterRequest
	if err := request.BodyParser(&input); err != nil {
		return response.Error(response.ErrInvalidInput)
	}
	if err := validate.Struct(input); err != nil {
		return response.Error(response.NewErrorWithDetails(response.ErrorCodeValidationError, "Invalid registration payload", 400, err.Error()))
	}

	installation := models.Installation{
		Platform:   input.Platform,
		AppVersion: input.AppVersion,
		LastSeenAt: time.Now(),
	}
	if err := db.Create(&installation).Error; err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	token, err := GenerateInstallationToken(installation.ID.String(), installation.Platform)
	if err != nil {
		return response.Error(response.ErrInternalError)
	}

	return response.Created(RegisterResponse{
		InstallationID: installation.ID.String(),
		Token:          token,
		TermsAccepted:  false,
	})
}

// AcceptTermsHandler records that the caller accepted the terms of use.
// Insight generation is refused until this has happened once.
func (c Controller) AcceptTermsHandler(request *evo.Request) any {
	installation, appErr := Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	if !installation.TermsAccepted() {
		now := time.Now()
		installation.TermsAcceptedAt = &now
		if err := db.Model(&models.Installation{}).Where("id = ?", installation.ID).
			Update("terms_accepted_at", now).Error; err != nil {
			return response.Error(response.ErrDatabaseError)
		}
	}

	return response.Message("Terms accepted")
}

// StatusHandler returns the current installation profile
func (c Controller) StatusHandler(request *evo.Request) any {
	installation, appErr := Identify(request)
	if appErr != nil {
		return response.Error(*appErr)
	}

	return response.OK(InstallationStatus{
		InstallationID:  installation.ID.String(),
		Platform:        installation.Platform,
		AppVersion:      installation.AppVersion,
		TermsAccepted:   installation.TermsAccepted(),
		TermsAcceptedAt: installation.TermsAcceptedAt,
		CreatedAt:       installation.CreatedAt,
	})
}

// Identify resolves the installation behind a request's bearer token.
// It also touches last_seen_at so stale installations can be pruned.
func Identify(request *evo.Request) (*models.Installation, *response.AppError) {
	token, ok := GetAuthToken(request)
	if !ok {
		e := response.ErrUnauthorized
		return nil, &e
	}

	claims, err := ParseInstallationToken(token)
	if err != nil {
		e := response.ErrInvalidToken
		return nil, &e
	}

	var installation models.Installation
	if err := db.Where("id = ?", claims.InstallationID).First(&installation).Error; err != nil {
		e := response.ErrInvalidToken
		return nil, &e
	}

	db.Model(&models.Installation{}).Where("id = ?", installation.ID).
		Update("last_seen_at", time.Now())

	return &installation, nil
}
