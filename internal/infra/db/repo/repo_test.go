package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/Builder-Lawyers/hosting-backend/internal/application/events"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/consts"
	"github.com/Builder-Lawyers/hosting-backend/internal/domain/entity"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db"
	"github.com/Builder-Lawyers/hosting-backend/internal/infra/db/repo"
	"github.com/Builder-Lawyers/hosting-backend/internal/testinfra"
	dbs "github.com/Builder-Lawyers/hosting-backend/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func newWebsite(ownerID uuid.UUID, templateID *uuid.UUID) entity.Website {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return entity.Website{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Name:       "Mon Blog",
		Slug:       "mon-blog",
		TemplateID: templateID,
		Content:    entity.Content{"hero": {"title": "Bienvenue"}},
		Settings:   map[string]any{"theme": "dark"},
		CustomCSS:  ".hero{}",
		Status:     consts.WebsiteStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestInsertAndGetWebsiteRoundTripsContent(t *testing.T) {
	uowFactory := dbs.NewUoWFactory(testinfra.Postgres(t))
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()
	ctx := context.Background()

	templateID := uuid.New()
	require.NoError(t, repo.NewTemplateRepo(tx).InsertTemplate(ctx, db.Template{
		ID:             templateID,
		Name:           "Blog",
		Category:       string(consts.CategoryBlog),
		Structure:      db.MapToRawMessage(map[string]any{"sections": []string{"hero"}}),
		DefaultContent: db.MapToRawMessage(entity.Content{"hero": {"title": "Default"}}),
	}))
	website := newWebsite(uuid.New(), &templateID)
	websiteRepo := repo.NewWebsiteRepo(tx)

	require.NoError(t, websiteRepo.InsertWebsite(ctx, db.MapWebsiteEntityToModel(website)))
	model, err := websiteRepo.GetWebsiteByID(ctx, website.ID)
	require.NoError(t, err)

	got := db.MapWebsiteModelToEntity(*model)
	require.Equal(t, "Bienvenue", got.Content.Field("hero", "title"))
	require.Equal(t, templateID, *got.TemplateID)
	require.Equal(t, consts.WebsiteStatusDraft, got.Status)
	require.False(t, got.IsHosted)
	require.Nil(t, model.HostingSubdomain)

	template, err := repo.NewTemplateRepo(tx).GetTemplateByID(ctx, templateID)
	require.NoError(t, err)
	require.Equal(t, consts.CategoryBlog, db.MapTemplateModelToEntity(*template).Category)
}

func TestUpdateHostingThenListHostedByOwner(t *testing.T) {
	uowFactory := dbs.NewUoWFactory(testinfra.Postgres(t))
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()
	ctx := context.Background()
	websiteRepo := repo.NewWebsiteRepo(tx)

	ownerID := uuid.New()
	hosted := newWebsite(ownerID, nil)
	draft := newWebsite(ownerID, nil)
	other := newWebsite(uuid.New(), nil)
	for _, w := range []entity.Website{hosted, draft, other} {
		require.NoError(t, websiteRepo.InsertWebsite(ctx, db.MapWebsiteEntityToModel(w)))
	}

	subdomain := "rt-" + uuid.NewString()[:8]
	hosted.MarkHosted(subdomain, "http://"+subdomain+".localhost:3001", time.Now().UTC())
	require.NoError(t, websiteRepo.UpdateHosting(ctx, db.MapWebsiteEntityToModel(hosted)))

	list, err := websiteRepo.ListHostedByOwner(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, hosted.ID, list[0].ID)
	require.Equal(t, string(consts.WebsiteStatusPublished), list[0].Status)

	bySubdomain, err := websiteRepo.GetWebsiteBySubdomain(ctx, subdomain)
	require.NoError(t, err)
	require.Equal(t, hosted.ID, bySubdomain.ID)
}

func TestUpdateHostingWhenMissingReturnsNoRows(t *testing.T) {
	uowFactory := dbs.NewUoWFactory(testinfra.Postgres(t))
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()

	err = repo.NewWebsiteRepo(tx).UpdateHosting(context.Background(), db.MapWebsiteEntityToModel(newWebsite(uuid.New(), nil)))

	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestInsertEventStoresTypeAndPayload(t *testing.T) {
	uowFactory := dbs.NewUoWFactory(testinfra.Postgres(t))
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()
	ctx := context.Background()

	websiteID := uuid.New()
	err = repo.NewEventRepo(tx).InsertEvent(ctx, events.SiteDeployed{WebsiteID: websiteID, Subdomain: "mon-blog"})
	require.NoError(t, err)

	var outbox db.Outbox
	err = tx.QueryRow(ctx, "SELECT id, event, status, payload, created_at FROM hosting.outbox WHERE payload->>'WebsiteID' = $1",
		websiteID.String()).Scan(&outbox.ID, &outbox.Event, &outbox.Status, &outbox.Payload, &outbox.CreatedAt)
	require.NoError(t, err)
	require.Equal(t, "SiteDeployed", outbox.Event)
	require.Equal(t, 0, outbox.Status)
	require.Equal(t, "mon-blog", db.MapOutboxModelToSiteDeployed(outbox).Subdomain)
}

func TestUpdateContentKeepsHostingColumns(t *testing.T) {
	uowFactory := dbs.NewUoWFactory(testinfra.Postgres(t))
	uow := uowFactory.GetUoW()
	tx, err := uow.Begin()
	require.NoError(t, err)
	defer uow.Rollback()
	ctx := context.Background()
	websiteRepo := repo.NewWebsiteRepo(tx)

	website := newWebsite(uuid.New(), nil)
	require.NoError(t, websiteRepo.InsertWebsite(ctx, db.MapWebsiteEntityToModel(website)))
	subdomain := "uc-" + uuid.NewString()[:8]
	website.MarkHosted(subdomain, "http://"+subdomain+".localhost:3001", time.Now().UTC())
	require.NoError(t, websiteRepo.UpdateHosting(ctx, db.MapWebsiteEntityToModel(website)))

	website.Content = website.Content.Merge(entity.Content{"about": {"title": "Qui suis-je"}})
	website.CustomJS = "console.log('hi')"
	require.NoError(t, websiteRepo.UpdateContent(ctx, db.MapWebsiteEntityToModel(website)))

	model, err := websiteRepo.GetWebsiteByID(ctx, website.ID)
	require.NoError(t, err)
	got := db.MapWebsiteModelToEntity(*model)
	require.Equal(t, "Bienvenue", got.Content.Field("hero", "title"))
	require.Equal(t, "Qui suis-je", got.Content.Field("about", "title"))
	require.Equal(t, "console.log('hi')", got.CustomJS)
	require.True(t, got.IsHosted)
	require.Equal(t, subdomain, got.HostingSubdomain)
}
