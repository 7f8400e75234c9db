package vault_test

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/teamvault/pkg/vaultapi"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for vault service end-to-end tests.
 * This includes container setup, account helpers, and assertions.
 */

const (
	testImageName = "teamvault-test:latest"

	sessionSecret = "e2e-session-secret-0123456789abcdef"
	testPassword  = "Correct-Horse-42"
)

// imageErr is set when the image could not be built; every test skips then.
var imageErr error

// TestMain builds the Docker image once before all tests and cleans it up
// after all tests complete.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		imageErr = fmt.Errorf("short mode")
		os.Exit(m.Run())
	}

	fmt.Fprintf(os.Stdout, "Building Vault Service Docker image...")
	if imageErr = buildDockerImage(); imageErr != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", imageErr)
	} else {
		fmt.Fprintf(os.Stdout, " done\n")
	}

	exitCode := m.Run()

	if imageErr == nil {
		fmt.Fprintf(os.Stdout, "Cleaning up Vault Service Docker image...")
		cleanupDockerImage()
		fmt.Fprintf(os.Stdout, " done\n")
	}

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/vault/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// baseEnv is the service environment shared by every container.
func baseEnv() map[string]string {
	return map[string]string{
		"ENV":                  "test",
		"LOG_LEVEL":            "info",
		"LOG_FORMAT":           "json",
		"VAULT_SESSION_SECRET": sessionSecret,
		"APP_BASE_URL":         "http://vault.test",
	}
}

// relaxedRateLimits raises the limits; every request in a test comes from
// the same address and would otherwise trip the production profiles.
func relaxedRateLimits(env map[string]string) map[string]string {
	for _, profile := range []string{"STRICT", "MODERATE", "LENIENT"} {
		env["RATELIMIT_"+profile+"_REQUESTS"] = "1000"
		env["RATELIMIT_"+profile+"_WINDOW_SEC"] = "60"
		env["RATELIMIT_"+profile+"_BURST"] = "1000"
	}
	return env
}

// setupVaultContainer starts the vault service and returns its base URL.
func setupVaultContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, relaxedRateLimits(baseEnv()))
}

// setupVaultContainerWithDefaultRateLimits starts the service with the
// production rate limits, for the tests that check them.
func setupVaultContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, baseEnv())
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	if imageErr != nil {
		t.Skipf("vault image unavailable: %v", imageErr)
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// register creates an account and returns a client signed in as it.
func register(t *testing.T, client *vaultapi.Client, email string) *vaultapi.Client {
	t.Helper()
	session, resp, err := client.Register(t.Context(), vaultapi.RegisterRequest{
		Email:    email,
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, strings.ToLower(email), resp.User.Email)
	return session
}

// assertAPIError verifies err is an API error with the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	require.Error(t, err)
	var apiErr *vaultapi.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status: %v", err)
	require.Equal(t, code, apiErr.Code, "unexpected code: %v", err)
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *vaultapi.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
