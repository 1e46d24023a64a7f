package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(pages []Page) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.Title()
	}
	return out
}

func TestVisiblePagesOrder(t *testing.T) {
	viewer := []string{"Dashboard", "Film Management", "Cast & Roles", "Analytics & Reports"}
	manager := append(append([]string{}, viewer...),
		"Director Operations", "Producer Analytics", "Crew Management", "Equipment & Locations", "Database Operations")
	admin := append(append([]string{}, manager...), "User Management", "Audit & Logs")

	assert.Equal(t, viewer, titles(VisiblePages(RoleViewer)))
	assert.Equal(t, manager, titles(VisiblePages(RoleManager)))
	assert.Equal(t, admin, titles(VisiblePages(RoleAdmin)))
}

func TestVisiblePagesAreNested(t *testing.T) {
	viewer := VisiblePages(RoleViewer)
	manager := VisiblePages(RoleManager)
	admin := VisiblePages(RoleAdmin)

	assert.Subset(t, manager, viewer)
	assert.Subset(t, admin, manager)
	assert.NotContains(t, viewer, PageUserManagement)
	assert.NotContains(t, viewer, PageAuditLogs)
	assert.NotContains(t, manager, PageUserManagement)
	assert.NotContains(t, manager, PageAuditLogs)
}

func TestVisiblePagesReturnsCopy(t *testing.T) {
	first := VisiblePages(RoleViewer)
	first[0] = PageAuditLogs
	assert.Equal(t, PageDashboard, VisiblePages(RoleViewer)[0])
}

func TestEnterPage(t *testing.T) {
	admin := Establish(UserSummary{ID: 1, Username: "admin", Role: RoleAdmin}, fixedNow)
	manager := Establish(UserSummary{ID: 2, Username: "mgr", Role: RoleManager}, fixedNow)
	viewer := Establish(UserSummary{ID: 3, Username: "view", Role: RoleViewer}, fixedNow)

	tests := []struct {
		name    string
		session Session
		page    Page
		wantErr error
	}{
		{"anonymous", Session{}, PageDashboard, ErrNotAuthenticated},
		{"viewer dashboard", viewer, PageDashboard, nil},
		{"viewer database ops", viewer, PageDatabaseOperations, ErrPermissionDenied},
		{"manager database ops", manager, PageDatabaseOperations, nil},
		{"manager users", manager, PageUserManagement, ErrPermissionDenied},
		{"manager audit", manager, PageAuditLogs, ErrPermissionDenied},
		{"admin users", admin, PageUserManagement, nil},
		{"admin audit", admin, PageAuditLogs, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnterPage(tt.session, tt.page)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("users")
	require.NoError(t, err)
	assert.Equal(t, PageUserManagement, p)

	p, err = ParsePage("Cast & Roles")
	require.NoError(t, err)
	assert.Equal(t, PageCastRoles, p)

	_, err = ParsePage("settings")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorize(t *testing.T) {
	viewer := Establish(UserSummary{ID: 3, Username: "view", Role: RoleViewer}, fixedNow)
	assert.NoError(t, Authorize(viewer, OpRead))
	assert.ErrorIs(t, Authorize(viewer, OpUpdate), ErrPermissionDenied)
	assert.ErrorIs(t, Authorize(Session{}, OpRead), ErrNotAuthenticated)
	assert.ErrorIs(t, RequireAdmin(viewer), ErrPermissionDenied)
}
