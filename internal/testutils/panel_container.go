package testutils

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PanelContainer is an HTTPS endpoint with a self-signed certificate that
// answers every /api/ request with a fixed return code.
type PanelContainer struct {
	Container testcontainers.Container
	Host      string
	Port      string
}

const (
	defaultPanelImage          = "caddy:2.8-alpine"
	defaultPanelStartupTimeout = 30 * time.Second
	panelPort                  = "8083"
)

const panelCaddyfile = `{
	admin off
	skip_install_trust
	default_sni localhost
}

https://localhost:8083 {
	tls internal
	handle /api/ {
		respond "{{CODE}}" 200
	}
	respond "not found" 404
}
`

func SetupPanelContainer(t *testing.T, ctx context.Context, code string) *PanelContainer {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	image := os.Getenv("VESTAPROV_TEST_PANEL_IMAGE")
	if image == "" {
		image = defaultPanelImage
	}

	req := testcontainers.ContainerRequest{
		Image:        image,
		ExposedPorts: []string{panelPort + "/tcp"},
		Files: []testcontainers.ContainerFile{
			{
				Reader:            strings.NewReader(strings.ReplaceAll(panelCaddyfile, "{{CODE}}", code)),
				ContainerFilePath: "/etc/caddy/Caddyfile",
				FileMode:          0o644,
			},
		},
		WaitingFor: wait.ForListeningPort(panelPort + "/tcp").WithStartupTimeout(defaultPanelStartupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start panel container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate panel container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, panelPort)
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	return &PanelContainer{
		Container: container,
		Host:      host,
		Port:      port.Port(),
	}
}
