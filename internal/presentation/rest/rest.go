package rest

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Builder-Lawyers/hosting-backend/internal/application"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/dto"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/errs"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const identityKey = "identity"

var _ ServerInterface = (*Server)(nil)

type IdentityProvider interface {
	GetIdentity(token string) (*auth.Identity, error)
}

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

// Authenticate resolves the bearer token of every /api request except the health check.
func Authenticate(provider IdentityProvider) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/api/health" || !strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "missing bearer token"})
		}
		identity, err := provider.GetIdentity(token)
		if err != nil {
			slog.Debug("rejected token", "err", err)
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid token"})
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func identityOf(c *fiber.Ctx) *auth.Identity {
	identity, _ := c.Locals(identityKey).(*auth.Identity)
	return identity
}

// StatusFor maps application errors to HTTP statuses.
func StatusFor(err error) int {
	var (
		notFound    errs.NotFoundError
		validation  errs.ValidationError
		conflict    errs.ConflictError
		permissions errs.PermissionsError
		fiberErr    *fiber.Error
	)
	switch {
	case errors.As(err, &notFound):
		return fiber.StatusNotFound
	case errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &conflict):
		return fiber.StatusConflict
	case errors.As(err, &permissions):
		return fiber.StatusForbidden
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}

func fail(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}

// ErrorHandler renders errors escaping the handlers, such as bad path parameters.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return fail(c, err)
}

func (s *Server) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: "AI Website Generator API is running"})
}

func (s *Server) ExportWebsite(c *fiber.Ctx, id uuid.UUID) error {
	export, err := s.handlers.ExportSite.Query(c.UserContext(), id, identityOf(c))
	if err != nil {
		return fail(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/zip")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+export.Filename+`"`)
	return c.Status(fiber.StatusOK).Send(export.Archive)
}

func (s *Server) UpdateContent(c *fiber.Ctx, id uuid.UUID) error {
	var req dto.UpdateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	_, err := s.handlers.UpdateContent.Execute(c.UserContext(), id, &req, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: "Contenu mis à jour"})
}

func (s *Server) DeployWebsite(c *fiber.Ctx, id uuid.UUID, params DeployWebsiteParams) error {
	var requested string
	if params.CustomSubdomain != nil {
		requested = *params.CustomSubdomain
	}

	result, err := s.handlers.DeploySite.Execute(c.UserContext(), id, requested, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: result.Message})
}

func (s *Server) UndeployWebsite(c *fiber.Ctx, id uuid.UUID) error {
	result, err := s.handlers.UndeploySite.Execute(c.UserContext(), id, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: result.Message})
}

func (s *Server) RedeployWebsite(c *fiber.Ctx, id uuid.UUID) error {
	result, err := s.handlers.RedeploySite.Execute(c.UserContext(), id, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: result.Message})
}

func (s *Server) ConfigureSSL(c *fiber.Ctx, id uuid.UUID) error {
	result, err := s.handlers.EnableSSL.Execute(c.UserContext(), id, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: result.Message})
}

func (s *Server) ListHostedSites(c *fiber.Ctx) error {
	sites, err := s.handlers.ListHostedSites.Query(c.UserContext(), identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(dto.HostedSitesResponse{Sites: sites})
}

func (s *Server) GetHostedSite(c *fiber.Ctx, subdomain string) error {
	site, err := s.handlers.GetHostedSite.Query(c.UserContext(), subdomain, identityOf(c))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(site)
}

func (s *Server) CheckSubdomain(c *fiber.Ctx, subdomain string) error {
	availability, err := s.handlers.CheckSubdomain.Query(c.UserContext(), subdomain)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(availability)
}
