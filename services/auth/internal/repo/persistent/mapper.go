package persistent

import (
	"encoding/json"

	"thriftgram/pkg/models"
	"thriftgram/services/auth/internal/entity"

	"gorm.io/datatypes"
)

func ToUserEntity(m *models.User) *entity.User {
	if m == nil {
		return nil
	}

	links := map[string]string{}
	if len(m.SocialLinks) > 0 {
		_ = json.Unmarshal(m.SocialLinks, &links)
	}

	return &entity.User{
		ID:               m.ID,
		Email:            m.Email,
		Username:         m.Username,
		Password:         m.Password,
		Bio:              m.Bio,
		ProfilePicture:   m.ProfilePicture,
		SocialLinks:      links,
		EcoPoints:        m.EcoPoints,
		EcoTier:          string(m.EcoTier),
		CO2Saved:         m.CO2Saved,
		WaterSaved:       m.WaterSaved,
		ItemsSoldCount:   m.ItemsSoldCount,
		ItemsBoughtCount: m.ItemsBoughtCount,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func ToUserModel(e *entity.User) *models.User {
	if e == nil {
		return nil
	}

	return &models.User{
		ID:             e.ID,
		Email:          e.Email,
		Username:       e.Username,
		Password:       e.Password,
		Bio:            e.Bio,
		ProfilePicture: e.ProfilePicture,
		SocialLinks:    socialLinksJSON(e.SocialLinks),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func socialLinksJSON(links map[string]string) datatypes.JSON {
	if links == nil {
		links = map[string]string{}
	}
	raw, _ := json.Marshal(links)
	return datatypes.JSON(raw)
}
