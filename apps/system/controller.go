package system

import (
	"crypto/subtle"
	"os"
	"time"

	"github.com/getevo/evo/v2"
	"github.com/getevo/evo/v2/lib/settings"
	"github.com/vidbriefs/vidbriefs-backend/apps/models"
	"github.com/vidbriefs/vidbriefs-backend/lib/response"
)

type Controller struct {
}

func (c Controller) HealthHandler(request *evo.Request) any {
	return response.OK("ok")
}

func (c Controller) UptimeHandler(request *evo.Request) any {
	uptimeData := map[string]any{
		"uptime": int64(time.Now().Sub(StartupTime).Seconds()),
	}
	return response.OK(uptimeData)
}

// AdminMiddleware guards operational endpoints behind a shared admin key.
// There are no user accounts in this service, installations are anonymous
// devices, so operator access is a static key from config.
func (c Controller) AdminMiddleware(request *evo.Request) error {
	adminKey := settings.Get("ADMIN.API_KEY").String()
	if adminKey == "" {
		adminKey = os.Getenv("ADMIN_API_KEY")
	}
	if adminKey == "" {
		return response.ErrForbidden
	}
	provided := request.Header("X-Admin-Key")
	if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
		return response.ErrForbidden
	}
	return request.Next()
}

// GetSettings returns all persisted settings grouped by category
func (c Controller) GetSettings(request *evo.Request) any {
	category := request.Query("category").String()
	if category != "" {
		items, err := models.GetSettingsByCategory(category)
		if err != nil {
			return response.Error(response.ErrDatabaseError)
		}
		return response.List(items, len(items))
	}

	items, err := models.GetAllSettings()
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.List(items, len(items))
}

// GetSetting returns a single setting by key
func (c Controller) GetSetting(request *evo.Request) any {
	key := request.Param("key").String()
	setting, err := models.GetSetting(key)
	if err != nil {
		return response.Error(response.ErrNotFound)
	}
	return response.OK(setting)
}

// SetSettingRequest represents the update body for a single setting
type SetSettingRequest struct {
	Value    string `json:"value"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Label    string `json:"label"`
}

// SetSetting creates or updates a setting by key
func (c Controller) SetSetting(request *evo.Request) any {
	key := request.Param("key").String()
	var input SetSettingRequest
	if err := request.BodyParser(&input); err != nil {
		return response.Error(response.ErrInvalidInput)
	}

	if err := models.SetSetting(key, input.Value, input.Type, input.Category, input.Label); err != nil {
		return response.Error(response.ErrDatabaseError)
	}

	setting, err := models.GetSetting(key)
	if err != nil {
		return response.Error(response.ErrDatabaseError)
	}
	return response.OK(setting)
}

// DeleteSetting removes a setting by key
func (c Controller) DeleteSetting(request *evo.Request) any {
	key := request.Param("key").String()
	if err := models.DeleteSetting(key); err != nil {
		return response.Error(response.ErrNotFound)
	}
	return response.Message("Setting deleted")
}
