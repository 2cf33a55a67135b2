package consts

type WebsiteStatus string

const (
	WebsiteStatusDraft     WebsiteStatus = "draft"
	WebsiteStatusPublished WebsiteStatus = "published"
)

type Category string

const (
	CategoryPortfolio Category = "portfolio"
	CategoryBusiness  Category = "business"
	CategoryBlog      Category = "blog"
	CategoryLanding   Category = "landing"
	CategoryEcommerce Category = "ecommerce"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPortfolio, CategoryBusiness, CategoryBlog, CategoryLanding, CategoryEcommerce:
		return true
	}
	return false
}

type DeploymentStatus string

const DeploymentStatusActive DeploymentStatus = "active"
