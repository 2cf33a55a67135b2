package db

import (
	"encoding/json"
	"log/slog"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/events"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
)

// rawToContent keeps the object sections of a content document and drops anything else.
func rawToContent(raw json.RawMessage) entity.Content {
	content := entity.Content{}
	for section, value := range RawMessageToMap(raw) {
		if fields, ok := value.(map[string]any); ok {
			content[section] = fields
		}
	}
	return content
}

func RawMessageToMap(raw json.RawMessage) map[string]any {
	result := map[string]any{}
	if len(raw) == 0 {
		return result
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		slog.Error("error unmarshaling json column", "err", err)
	}
	return result
}

func MapToRawMessage(data any) json.RawMessage {
	bytes, err := json.Marshal(data)
	if err != nil {
		slog.Error("error marshaling json column", "err", err)
		return json.RawMessage("{}")
	}
	if string(bytes) == "null" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(bytes)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func MapWebsiteModelToEntity(model Website) entity.Website {
	return entity.Website{
		ID:               model.ID,
		OwnerID:          model.OwnerID,
		Name:             model.Name,
		Slug:             model.Slug,
		Description:      model.Description,
		TemplateID:       model.TemplateID,
		Content:          rawToContent(model.Content),
		Settings:         RawMessageToMap(model.Settings),
		CustomCSS:        model.CustomCSS,
		CustomJS:         model.CustomJS,
		MetaTitle:        model.MetaTitle,
		MetaDescription:  model.MetaDescription,
		MetaKeywords:     model.MetaKeywords,
		Status:           consts.WebsiteStatus(model.Status),
		IsHosted:         model.IsHosted,
		HostingSubdomain: deref(model.HostingSubdomain),
		HostingURL:       deref(model.HostingURL),
		SSLEnabled:       model.SSLEnabled,
		DeployedAt:       model.DeployedAt,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func MapWebsiteEntityToModel(website entity.Website) Website {
	return Website{
		ID:               website.ID,
		OwnerID:          website.OwnerID,
		Name:             website.Name,
		Slug:             website.Slug,
		Description:      website.Description,
		TemplateID:       website.TemplateID,
		Content:          MapToRawMessage(website.Content),
		Settings:         MapToRawMessage(website.Settings),
		CustomCSS:        website.CustomCSS,
		CustomJS:         website.CustomJS,
		MetaTitle:        website.MetaTitle,
		MetaDescription:  website.MetaDescription,
		MetaKeywords:     website.MetaKeywords,
		Status:           string(website.Status),
		IsHosted:         website.IsHosted,
		HostingSubdomain: nullable(website.HostingSubdomain),
		HostingURL:       nullable(website.HostingURL),
		SSLEnabled:       website.SSLEnabled,
		DeployedAt:       website.DeployedAt,
		CreatedAt:        website.CreatedAt,
		UpdatedAt:        website.UpdatedAt,
	}
}

func MapTemplateModelToEntity(model Template) entity.Template {
	return entity.Template{
		ID:             model.ID,
		Name:           model.Name,
		Category:       consts.Category(model.Category),
		Structure:      RawMessageToMap(model.Structure),
		DefaultContent: rawToContent(model.DefaultContent),
	}
}

func MapOutboxModelToSiteDeployed(outbox Outbox) events.SiteDeployed {
	var siteDeployed events.SiteDeployed
	if err := json.Unmarshal(outbox.Payload, &siteDeployed); err != nil {
		slog.Error("error unmarshaling event", "err", err)
		return events.SiteDeployed{}
	}
	siteDeployed.CreatedAt = outbox.CreatedAt

	return siteDeployed
}

func MapOutboxModelToSiteUndeployed(outbox Outbox) events.SiteUndeployed {
	var siteUndeployed events.SiteUndeployed
	if err := json.Unmarshal(outbox.Payload, &siteUndeployed); err != nil {
		slog.Error("error unmarshaling event", "err", err)
		return events.SiteUndeployed{}
	}
	siteUndeployed.CreatedAt = outbox.CreatedAt

	return siteUndeployed
}
