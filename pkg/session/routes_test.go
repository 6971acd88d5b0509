package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPublicRoute(t *testing.T) {
	public := []string{
		RouteLogin,
		RouteRegister,
		RouteForgotPassword,
		RouteResetPassword,
		RouteResetPassword + "/abc123",
		RouteAuthCallback,
	}
	for _, path := range public {
		assert.True(t, IsPublicRoute(path), path)
	}

	private := []string{"/", RouteHome, RouteAdminHome, "/tasks/7", "/reset-passwords"}
	for _, path := range private {
		assert.False(t, IsPublicRoute(path), path)
	}
}

func TestIsEntryRoute(t *testing.T) {
	assert.True(t, IsEntryRoute(RouteLogin))
	assert.True(t, IsEntryRoute(RouteRegister))
	assert.False(t, IsEntryRoute(RouteForgotPassword))
	assert.False(t, IsEntryRoute(RouteHome))
}

func TestLandingFor(t *testing.T) {
	assert.Equal(t, RouteAdminHome, LandingFor("admin"))
	assert.Equal(t, RouteHome, LandingFor("user"))
	assert.Equal(t, RouteHome, LandingFor(""))
}
