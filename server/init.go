package server

import (
	"fmt"
	"os"
)

const defaultGatewayYAML = `service_name: federation-gateway
endpoint: /graphql
port: 4000
timeout_duration: 5s
enable_hang_over_request_header: true
services: []
opentelemetry:
  tracing:
    enable: false
`

// Init scaffolds a gateway.yaml in the current directory so a fresh
// checkout has something for Run to load.
func Init() error {
	if _, err := os.Stat("gateway.yaml"); err == nil {
		return fmt.Errorf("gateway.yaml already exists")
	}

	if err := os.WriteFile("gateway.yaml", []byte(defaultGatewayYAML), 0644); err != nil {
		return fmt.Errorf("failed to write gateway.yaml: %w", err)
	}

	fmt.Println("wrote gateway.yaml")
	return nil
}
