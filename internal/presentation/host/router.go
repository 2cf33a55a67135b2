package host

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/infra/config"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/hosting"
	"github.com/gofiber/fiber/v2"
)

//go:embed welcome.html
var welcomeTemplate string

// Bundles is the read side of the deployment store.
type Bundles interface {
	Exists(ctx context.Context, name string) (bool, error)
	Resolve(name, requestPath string) (string, error)
}

// Router serves hosted bundles, picking the bundle from the leftmost label of the Host header.
type Router struct {
	bundles    Bundles
	bareDomain string
	welcome    []byte
}

func NewRouter(cfg *config.HostingConfig, bundles Bundles) *Router {
	welcome := strings.NewReplacer("{{SCHEME}}", cfg.Scheme(), "{{BASE_DOMAIN}}", cfg.BaseDomain).Replace(welcomeTemplate)
	return &Router{
		bundles:    bundles,
		bareDomain: cfg.BareDomain(),
		welcome:    []byte(welcome),
	}
}

// NewApp returns a fiber app serving every GET and HEAD through the router.
func NewApp(router *Router) *fiber.App {
	app := fiber.New(fiber.Config{
		IdleTimeout:           5 * time.Second,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		DisableStartupMessage: true,
	})
	app.Use(logRequests)
	app.Get("/*", router.Serve)
	return app
}

func logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	slog.Debug("hosted request", "host", c.Get(fiber.HeaderHost), "path", c.Path(),
		"status", c.Response().StatusCode(), "took", time.Since(start))
	return err
}

// hostname strips the port and lowercases the Host header.
func hostname(header string) string {
	host := header
	if h, _, err := net.SplitHostPort(header); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

func (r *Router) Serve(c *fiber.Ctx) error {
	host := hostname(c.Get(fiber.HeaderHost))
	if !strings.Contains(host, ".") || host == r.bareDomain {
		c.Set(fiber.HeaderContentType, "text/html; charset=utf-8")
		return c.Status(fiber.StatusOK).Send(r.welcome)
	}

	subdomain := host[:strings.Index(host, ".")]
	exists, err := r.bundles.Exists(c.UserContext(), subdomain)
	if err != nil {
		slog.Error("err looking up site", "subdomain", subdomain, "err", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).SendString("Site not found: " + subdomain)
	}

	path, err := r.bundles.Resolve(subdomain, c.Path())
	if errors.Is(err, hosting.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}
	if err != nil {
		slog.Error("err resolving file", "subdomain", subdomain, "path", c.Path(), "err", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// removed between resolve and read by a redeploy
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}
	if err != nil {
		slog.Error("err reading file", "path", path, "err", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	c.Set(fiber.HeaderContentType, hosting.ContentType(path))
	return c.Status(fiber.StatusOK).Send(data)
}
