package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/imamik/galeractl/internal/api"
	"github.com/imamik/galeractl/internal/introspect"
)

// InspectOptions selects the node and database account to inspect.
type InspectOptions struct {
	NodeID int64
	User   string
	JSON   bool
}

// newInspector builds the database inspector; replaced in tests.
var newInspector = func(timeout time.Duration) api.Inspector {
	return introspect.New(timeout)
}

// Inspect connects to a node's database server and prints its state.
// The password comes from GALERACTL_DB_PASSWORD.
func Inspect(ctx context.Context, configPath string, opts InspectOptions) error {
	cfg, _, st, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	node, err := st.GetNode(ctx, opts.NodeID)
	if err != nil {
		return fmt.Errorf("failed to load node %d: %w", opts.NodeID, err)
	}

	creds := introspect.Credentials{User: opts.User, Password: os.Getenv("GALERACTL_DB_PASSWORD")}
	report, err := newInspector(cfg.Introspect.Timeout).Inspect(ctx, node.Address, creds)
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Print(renderReport(node, report))
	return nil
}
