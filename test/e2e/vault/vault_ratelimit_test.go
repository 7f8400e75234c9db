package vault_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
)

// TestLoginRateLimit verifies repeated logins for one email are throttled
// under the production limits.
func TestLoginRateLimit(t *testing.T) {
	baseURL, cleanup := setupVaultContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := vaultapi.NewClient(baseURL)
	register(t, client, "target@example.com")

	var err error
	for i := 0; i < 6; i++ {
		_, _, err = client.Login(t.Context(), vaultapi.LoginRequest{Email: "target@example.com", Password: "wrong"})
	}
	assertAPIError(t, err, http.StatusTooManyRequests, vaultapi.ErrorCodeRateLimited)
}
