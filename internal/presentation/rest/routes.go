package rest

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

type DeployWebsiteParams struct {
	CustomSubdomain *string `form:"custom_subdomain,omitempty" json:"custom_subdomain,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /api/health)
	Health(c *fiber.Ctx) error
	// (GET /api/websites/{id}/export)
	ExportWebsite(c *fiber.Ctx, id uuid.UUID) error
	// (PATCH /api/websites/{id}/content)
	UpdateContent(c *fiber.Ctx, id uuid.UUID) error
	// (POST /api/websites/{id}/deploy)
	DeployWebsite(c *fiber.Ctx, id uuid.UUID, params DeployWebsiteParams) error
	// (DELETE /api/websites/{id}/undeploy)
	UndeployWebsite(c *fiber.Ctx, id uuid.UUID) error
	// (PUT /api/websites/{id}/redeploy)
	RedeployWebsite(c *fiber.Ctx, id uuid.UUID) error
	// (POST /api/websites/{id}/ssl)
	ConfigureSSL(c *fiber.Ctx, id uuid.UUID) error
	// (GET /api/hosting/sites)
	ListHostedSites(c *fiber.Ctx) error
	// (GET /api/hosting/sites/{subdomain})
	GetHostedSite(c *fiber.Ctx, subdomain string) error
	// (GET /api/hosting/subdomains/{subdomain}/availability)
	CheckSubdomain(c *fiber.Ctx, subdomain string) error
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

type MiddlewareFunc fiber.Handler

func pathParam[T any](c *fiber.Ctx, name string) (T, error) {
	var value T
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Params(name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return value, fiber.NewError(fiber.StatusBadRequest, fmt.Errorf("Invalid format for parameter %s: %w", name, err).Error())
	}
	return value, nil
}

func (siw *ServerInterfaceWrapper) Health(c *fiber.Ctx) error {
	return siw.Handler.Health(c)
}

func (siw *ServerInterfaceWrapper) ExportWebsite(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}
	return siw.Handler.ExportWebsite(c, id)
}

func (siw *ServerInterfaceWrapper) UpdateContent(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}
	return siw.Handler.UpdateContent(c, id)
}

func (siw *ServerInterfaceWrapper) DeployWebsite(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}

	var params DeployWebsiteParams
	query, err := url.ParseQuery(string(c.Request().URI().QueryString()))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Errorf("Invalid format for query string: %w", err).Error())
	}
	err = runtime.BindQueryParameter("form", true, false, "custom_subdomain", query, &params.CustomSubdomain)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Errorf("Invalid format for parameter custom_subdomain: %w", err).Error())
	}

	return siw.Handler.DeployWebsite(c, id, params)
}

func (siw *ServerInterfaceWrapper) UndeployWebsite(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}
	return siw.Handler.UndeployWebsite(c, id)
}

func (siw *ServerInterfaceWrapper) RedeployWebsite(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}
	return siw.Handler.RedeployWebsite(c, id)
}

func (siw *ServerInterfaceWrapper) ConfigureSSL(c *fiber.Ctx) error {
	id, err := pathParam[uuid.UUID](c, "id")
	if err != nil {
		return err
	}
	return siw.Handler.ConfigureSSL(c, id)
}

func (siw *ServerInterfaceWrapper) ListHostedSites(c *fiber.Ctx) error {
	return siw.Handler.ListHostedSites(c)
}

func (siw *ServerInterfaceWrapper) GetHostedSite(c *fiber.Ctx) error {
	subdomain, err := pathParam[string](c, "subdomain")
	if err != nil {
		return err
	}
	return siw.Handler.GetHostedSite(c, subdomain)
}

func (siw *ServerInterfaceWrapper) CheckSubdomain(c *fiber.Ctx) error {
	subdomain, err := pathParam[string](c, "subdomain")
	if err != nil {
		return err
	}
	return siw.Handler.CheckSubdomain(c, subdomain)
}

type FiberServerOptions struct {
	BaseURL     string
	Middlewares []MiddlewareFunc
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router fiber.Router, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, FiberServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router fiber.Router, si ServerInterface, options FiberServerOptions) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	for _, m := range options.Middlewares {
		router.Use(fiber.Handler(m))
	}

	router.Get(options.BaseURL+"/api/health", wrapper.Health)
	router.Get(options.BaseURL+"/api/websites/:id/export", wrapper.ExportWebsite)
	router.Patch(options.BaseURL+"/api/websites/:id/content", wrapper.UpdateContent)
	router.Post(options.BaseURL+"/api/websites/:id/deploy", wrapper.DeployWebsite)
	router.Delete(options.BaseURL+"/api/websites/:id/undeploy", wrapper.UndeployWebsite)
	router.Put(options.BaseURL+"/api/websites/:id/redeploy", wrapper.RedeployWebsite)
	router.Post(options.BaseURL+"/api/websites/:id/ssl", wrapper.ConfigureSSL)
	router.Get(options.BaseURL+"/api/hosting/sites", wrapper.ListHostedSites)
	router.Get(options.BaseURL+"/api/hosting/sites/:subdomain", wrapper.GetHostedSite)
	router.Get(options.BaseURL+"/api/hosting/subdomains/:subdomain/availability", wrapper.CheckSubdomain)
}
