package auth

import (
	"fmt"
	"strings"
)

// Page identifies a dashboard page. The numeric order is the menu order.
type Page int

const (
	PageDashboard Page = iota + 1
	PageFilmManagement
	PageCastRoles
	PageDirectorOperations
	PageProducerAnalytics
	PageCrewManagement
	PageEquipmentLocations
	PageAnalyticsReports
	PageDatabaseOperations
	PageUserManagement
	PageAuditLogs
)

var pageTitles = map[Page]string{
	PageDashboard:          "Dashboard",
	PageFilmManagement:     "Film Management",
	PageCastRoles:          "Cast & Roles",
	PageDirectorOperations: "Director Operations",
	PageProducerAnalytics:  "Producer Analytics",
	PageCrewManagement:     "Crew Management",
	PageEquipmentLocations: "Equipment & Locations",
	PageAnalyticsReports:   "Analytics & Reports",
	PageDatabaseOperations: "Database Operations",
	PageUserManagement:     "User Management",
	PageAuditLogs:          "Audit & Logs",
}

var pageSlugs = map[Page]string{
	PageDashboard:          "dashboard",
	PageFilmManagement:     "films",
	PageCastRoles:          "cast",
	PageDirectorOperations: "directors",
	PageProducerAnalytics:  "producers",
	PageCrewManagement:     "crew",
	PageEquipmentLocations: "equipment",
	PageAnalyticsReports:   "reports",
	PageDatabaseOperations: "operations",
	PageUserManagement:     "users",
	PageAuditLogs:          "audit",
}

var (
	commonPages  = []Page{PageDashboard, PageFilmManagement, PageCastRoles, PageAnalyticsReports}
	managerPages = []Page{PageDirectorOperations, PageProducerAnalytics, PageCrewManagement, PageEquipmentLocations, PageDatabaseOperations}
	adminPages   = []Page{PageUserManagement, PageAuditLogs}
)

// Title is the menu label of p.
func (p Page) Title() string {
	if t, ok := pageTitles[p]; ok {
		return t
	}
	return fmt.Sprintf("Page(%d)", int(p))
}

// Slug is the URL-safe identifier of p.
func (p Page) Slug() string { return pageSlugs[p] }

func (p Page) String() string { return p.Title() }

// ParsePage resolves a slug or a title into a page.
func ParsePage(s string) (Page, error) {
	s = strings.TrimSpace(s)
	for p, slug := range pageSlugs {
		if strings.EqualFold(s, slug) || strings.EqualFold(s, pageTitles[p]) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown page %q", ErrNotFound, s)
}

// VisiblePages returns the menu for role in display order. The returned
// slice is a fresh copy.
func VisiblePages(role Role) []Page {
	out := make([]Page, 0, len(commonPages)+len(managerPages)+len(adminPages))
	out = append(out, commonPages...)
	switch role {
	case RoleAdmin:
		out = append(out, managerPages...)
		out = append(out, adminPages...)
	case RoleManager:
		out = append(out, managerPages...)
	case RoleViewer:
	default:
		panic(fmt.Sprintf("auth: unknown role %q", string(role)))
	}
	return out
}

// CanView reports whether page appears in the menu of role.
func CanView(role Role, page Page) bool {
	for _, p := range VisiblePages(role) {
		if p == page {
			return true
		}
	}
	return false
}

// adminOnly reports the pages that re-check the admin role on entry no
// matter what the menu table says.
func adminOnly(page Page) bool {
	return page == PageUserManagement || page == PageAuditLogs
}

// EnterPage guards direct navigation to page.
func EnterPage(s Session, page Page) error {
	if !s.Authenticated {
		return ErrNotAuthenticated
	}
	if adminOnly(page) && s.Role != RoleAdmin {
		return fmt.Errorf("%w: %s requires admin", ErrPermissionDenied, page.Title())
	}
	if !CanView(s.Role, page) {
		return fmt.Errorf("%w: %s is not available to %s", ErrPermissionDenied, page.Title(), s.Role)
	}
	return nil
}

// Authorize checks that s may perform op.
func Authorize(s Session, op Operation) error {
	if !s.Authenticated {
		return ErrNotAuthenticated
	}
	if !Can(s.Role, op) {
		return fmt.Errorf("%w: %s may not %s", ErrPermissionDenied, s.Role, op)
	}
	return nil
}

// RequireAdmin checks that s belongs to an authenticated admin.
func RequireAdmin(s Session) error {
	if !s.Authenticated {
		return ErrNotAuthenticated
	}
	if s.Role != RoleAdmin {
		return fmt.Errorf("%w: admin role required", ErrPermissionDenied)
	}
	return nil
}
