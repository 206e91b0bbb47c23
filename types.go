package biolink

import "time"

// Custom page types and statuses as stored in the content document.
const (
	PageTypeURL  = "URL"
	PageTypeHTML = "HTML"

	PageStatusActive = "active"
)

// Link is a primary call-to-action button on the landing page.
type Link struct {
	Title string `json:"title" bson:"title"`
	Sub   string `json:"sub" bson:"sub"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon" bson:"icon"`
}

// SidebarItem is a side navigation entry.
type SidebarItem struct {
	Label string `json:"label" bson:"label"`
	URL   string `json:"url" bson:"url"`
	Icon  string `json:"icon" bson:"icon"`
}

// Social is a social icon link.
type Social struct {
	URL  string `json:"url" bson:"url"`
	Icon string `json:"icon" bson:"icon"`
}

// CustomPage is an operator-authored sub-page reachable by slug.
// Type is either PageTypeURL (redirect to URL) or PageTypeHTML (serve
// HTMLCode). Only pages with Status == PageStatusActive are ever routed.
type CustomPage struct {
	Title         string `json:"title" bson:"title"`
	Slug          string `json:"slug" bson:"slug"`
	Type          string `json:"type" bson:"type"`
	URL           string `json:"url,omitempty" bson:"url,omitempty"`
	HTMLCode      string `json:"htmlCode,omitempty" bson:"htmlCode,omitempty"`
	Status        string `json:"status" bson:"status"`
	ShowInMain    bool   `json:"showInMain" bson:"showInMain"`
	ShowInSidebar bool   `json:"showInSidebar" bson:"showInSidebar"`
	Icon          string `json:"icon" bson:"icon"`
	Sub           string `json:"sub" bson:"sub"`
}

// Images holds the background and profile image URLs.
type Images struct {
	Desktop string `json:"desktop" bson:"desktop"`
	Mobile  string `json:"mobile" bson:"mobile"`
	Profile string `json:"profile" bson:"profile"`
}

// SiteMeta holds the <head> metadata edited through the admin panel.
type SiteMeta struct {
	SiteTitle string `json:"siteTitle" bson:"siteTitle"`
	MetaDesc  string `json:"metaDesc" bson:"metaDesc"`
	MetaKeys  string `json:"metaKeys" bson:"metaKeys"`
}

// ContentID is the fixed key of the singleton content document.
const ContentID = "main"

// Content is the singleton document behind the whole site. Exactly one
// exists per deployment, keyed by ContentID.
type Content struct {
	ID          string            `json:"id" bson:"id"`
	Texts       map[string]string `json:"texts" bson:"texts"`
	Links       []Link            `json:"links" bson:"links"`
	Sidebar     []SidebarItem     `json:"sidebar" bson:"sidebar"`
	Socials     []Social          `json:"socials" bson:"socials"`
	CustomPages []CustomPage      `json:"customPages" bson:"customPages"`
	Images      Images            `json:"images" bson:"images"`
	Config      SiteMeta          `json:"config" bson:"config"`
	UpdatedAt   time.Time         `json:"updatedAt" bson:"updatedAt"`
}

// FindPage returns the first active custom page whose slug matches.
// Slugs are not unique in the store; first stored match wins.
func (c Content) FindPage(slug string) (CustomPage, bool) {
	for _, p := range c.CustomPages {
		if p.Slug == slug && p.Status == PageStatusActive {
			return p, true
		}
	}
	return CustomPage{}, false
}

// DefaultContent is the document served when the store holds nothing yet.
// It is never written back; the first admin save creates the real one.
func DefaultContent() Content {
	return Content{
		ID: ContentID,
		Texts: map[string]string{
			"title":    "Baeci",
			"username": "@baeci",
			"bio":      "Welcome to my corner of the internet.",
		},
		Links:       []Link{},
		Sidebar:     []SidebarItem{},
		Socials:     []Social{},
		CustomPages: []CustomPage{},
		Images:      Images{},
		Config: SiteMeta{
			SiteTitle: "Baeci",
			MetaDesc:  "Personal biolink page",
			MetaKeys:  "biolink, links",
		},
	}
}

// ContentPatch is a partial content document. Nil sections are left
// untouched by a merge; non-nil sections fully replace the stored value
// (no element-wise merging of arrays or maps).
type ContentPatch struct {
	Texts       *map[string]string `json:"texts,omitempty"`
	Links       *[]Link            `json:"links,omitempty"`
	Sidebar     *[]SidebarItem     `json:"sidebar,omitempty"`
	Socials     *[]Social          `json:"socials,omitempty"`
	CustomPages *[]CustomPage      `json:"customPages,omitempty"`
	Images      *Images            `json:"images,omitempty"`
	Config      *SiteMeta          `json:"config,omitempty"`
}

// Apply merges the patch into doc in place and stamps UpdatedAt.
func (p ContentPatch) Apply(doc *Content, now time.Time) {
	if p.Texts != nil {
		doc.Texts = *p.Texts
	}
	if p.Links != nil {
		doc.Links = *p.Links
	}
	if p.Sidebar != nil {
		doc.Sidebar = *p.Sidebar
	}
	if p.Socials != nil {
		doc.Socials = *p.Socials
	}
	if p.CustomPages != nil {
		doc.CustomPages = *p.CustomPages
	}
	if p.Images != nil {
		doc.Images = *p.Images
	}
	if p.Config != nil {
		doc.Config = *p.Config
	}
	doc.UpdatedAt = now
}
