package application

import (
	"github.com/Builder-Lawyers/hosting-backend/internal/application/commands/site"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/processors"
	"github.com/Builder-Lawyers/hosting-backend/internal/application/query"
)

type Handlers struct {
	DeploySite      *site.DeploySite
	UndeploySite    *site.UndeploySite
	RedeploySite    *site.RedeploySite
	EnableSSL       *site.EnableSSL
	UpdateContent   *site.UpdateContent
	ExportSite      *query.ExportSite
	ListHostedSites *query.ListHostedSites
	GetHostedSite   *query.GetHostedSite
	CheckSubdomain  *query.CheckSubdomain
}

type Processors struct {
	MirrorSite   *processors.MirrorSite
	UnmirrorSite *processors.UnmirrorSite
}
