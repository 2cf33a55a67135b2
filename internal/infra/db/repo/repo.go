package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/interfaces"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	shared "github.com/Builder-Lawyers/hosting-backend/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const websiteColumns = `id, owner_id, name, slug, description, template_id, content, settings, custom_css, custom_js,
	meta_title, meta_description, meta_keywords, status, is_hosted, hosting_subdomain, hosting_url, ssl_enabled,
	deployed_at, created_at, updated_at`

type WebsiteRepo struct {
	tx pgx.Tx
}

var _ interfaces.WebsiteRepo = (*WebsiteRepo)(nil)

func NewWebsiteRepo(tx pgx.Tx) *WebsiteRepo {
	return &WebsiteRepo{tx: tx}
}

func scanWebsite(row pgx.Row) (*db.Website, error) {
	var w db.Website
	err := row.Scan(&w.ID, &w.OwnerID, &w.Name, &w.Slug, &w.Description, &w.TemplateID, &w.Content, &w.Settings,
		&w.CustomCSS, &w.CustomJS, &w.MetaTitle, &w.MetaDescription, &w.MetaKeywords, &w.Status, &w.IsHosted,
		&w.HostingSubdomain, &w.HostingURL, &w.SSLEnabled, &w.DeployedAt, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WebsiteRepo) GetWebsiteByID(ctx context.Context, id uuid.UUID) (*db.Website, error) {
	query := "SELECT " + websiteColumns + " FROM hosting.websites WHERE id = $1"
	return scanWebsite(r.tx.QueryRow(ctx, query, id))
}

// GetWebsiteForUpdate locks the row until the transaction ends so hosting changes of one website
// run one at a time.
func (r *WebsiteRepo) GetWebsiteForUpdate(ctx context.Context, id uuid.UUID) (*db.Website, error) {
	query := "SELECT " + websiteColumns + " FROM hosting.websites WHERE id = $1 FOR UPDATE"
	return scanWebsite(r.tx.QueryRow(ctx, query, id))
}

func (r *WebsiteRepo) GetWebsiteBySubdomain(ctx context.Context, subdomain string) (*db.Website, error) {
	query := "SELECT " + websiteColumns + " FROM hosting.websites WHERE hosting_subdomain = $1"
	return scanWebsite(r.tx.QueryRow(ctx, query, subdomain))
}

func (r *WebsiteRepo) InsertWebsite(ctx context.Context, w db.Website) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO hosting.websites(`+websiteColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		w.ID, w.OwnerID, w.Name, w.Slug, w.Description, w.TemplateID, w.Content, w.Settings, w.CustomCSS, w.CustomJS,
		w.MetaTitle, w.MetaDescription, w.MetaKeywords, w.Status, w.IsHosted, w.HostingSubdomain, w.HostingURL,
		w.SSLEnabled, w.DeployedAt, w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("err inserting website, %v", err)
	}
	return nil
}

// UpdateHosting writes back the hosting columns and status of a website.
func (r *WebsiteRepo) UpdateHosting(ctx context.Context, w db.Website) error {
	tag, err := r.tx.Exec(ctx, `UPDATE hosting.websites SET status = $2, is_hosted = $3, hosting_subdomain = $4,
			hosting_url = $5, ssl_enabled = $6, deployed_at = $7, updated_at = $8 WHERE id = $1`,
		w.ID, w.Status, w.IsHosted, w.HostingSubdomain, w.HostingURL, w.SSLEnabled, w.DeployedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("err updating website hosting, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateContent writes back the editable fields of a website.
func (r *WebsiteRepo) UpdateContent(ctx context.Context, w db.Website) error {
	tag, err := r.tx.Exec(ctx, `UPDATE hosting.websites SET name = $2, description = $3, content = $4, custom_css = $5,
			custom_js = $6, meta_title = $7, meta_description = $8, meta_keywords = $9, updated_at = $10 WHERE id = $1`,
		w.ID, w.Name, w.Description, w.Content, w.CustomCSS, w.CustomJS, w.MetaTitle, w.MetaDescription, w.MetaKeywords,
		w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("err updating website content, %v", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *WebsiteRepo) ListHostedByOwner(ctx context.Context, ownerID uuid.UUID) ([]db.Website, error) {
	query := "SELECT " + websiteColumns + " FROM hosting.websites WHERE owner_id = $1 AND is_hosted ORDER BY hosting_subdomain"
	rows, err := r.tx.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("err listing hosted websites, %v", err)
	}
	defer rows.Close()

	var websites []db.Website
	for rows.Next() {
		w, err := scanWebsite(rows)
		if err != nil {
			return nil, fmt.Errorf("err scanning website, %v", err)
		}
		websites = append(websites, *w)
	}
	return websites, rows.Err()
}

type TemplateRepo struct {
	tx pgx.Tx
}

var _ interfaces.TemplateRepo = (*TemplateRepo)(nil)

func NewTemplateRepo(tx pgx.Tx) *TemplateRepo {
	return &TemplateRepo{tx: tx}
}

func (t *TemplateRepo) GetTemplateByID(ctx context.Context, id uuid.UUID) (*db.Template, error) {
	var template db.Template
	query := "SELECT id, name, category, structure, default_content FROM hosting.templates WHERE id = $1"
	err := t.tx.QueryRow(ctx, query, id).Scan(&template.ID, &template.Name, &template.Category, &template.Structure,
		&template.DefaultContent)
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (t *TemplateRepo) InsertTemplate(ctx context.Context, template db.Template) error {
	_, err := t.tx.Exec(ctx, "INSERT INTO hosting.templates(id, name, category, structure, default_content) VALUES ($1,$2,$3,$4,$5)",
		template.ID, template.Name, template.Category, template.Structure, template.DefaultContent)
	if err != nil {
		return fmt.Errorf("err inserting template, %v", err)
	}
	return nil
}

type EventRepo struct {
	tx pgx.Tx
}

var _ interfaces.EventRepo = (*EventRepo)(nil)

func NewEventRepo(tx pgx.Tx) *EventRepo {
	return &EventRepo{tx: tx}
}

func (e *EventRepo) InsertEvent(ctx context.Context, event shared.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("err marshalling event payload, %v", err)
	}
	outbox := db.Outbox{
		Event:     event.GetType(),
		Status:    int(consts.NotProcessed),
		Payload:   json.RawMessage(payload),
		CreatedAt: time.Now(),
	}
	_, err = e.tx.Exec(ctx, "INSERT INTO hosting.outbox (event, status, payload, created_at) VALUES ($1,$2,$3,$4)",
		outbox.Event, outbox.Status, outbox.Payload, outbox.CreatedAt)
	if err != nil {
		return fmt.Errorf("err inserting a new event, %v", err)
	}

	return nil
}
