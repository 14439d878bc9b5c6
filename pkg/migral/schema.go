package migral

import (
	"context"
	"fmt"
	"strings"

	"github.com/migral/migral/internal/devdb"
	"github.com/migral/migral/internal/dialect"
	"github.com/migral/migral/internal/engine"
	"github.com/migral/migral/internal/engine/state"
	"github.com/migral/migral/internal/fingerprint"
	"github.com/migral/migral/internal/lockfile"
	"github.com/migral/migral/internal/metadata"
	"github.com/migral/migral/internal/sqlgen"
)

// Schema snapshots, DDL rendering, fingerprints, and the lock file.

// fullPlan loads every node and resolves the global execution order.
func (c *Client) fullPlan() (*engine.Plan, error) {
	nodes, err := c.Load()
	if err != nil {
		return nil, err
	}
	return engine.PlanNodes(nodes)
}

// Schema replays every node and returns the resulting snapshot.
func (c *Client) Schema() (*state.Schema, error) {
	plan, err := c.fullPlan()
	if err != nil {
		return nil, err
	}
	return plan.Schema()
}

// SchemaDDL renders the full schema as DDL for the given dialect, or for
// the client's own dialect when dialectName is empty. The result is one
// statement per entry, without trailing semicolons.
func (c *Client) SchemaDDL(dialectName string) ([]string, error) {
	d := c.dialect
	if dialectName != "" {
		d = dialect.Get(dialectName)
		if d == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, dialectName)
		}
	}

	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	return sqlgen.NewBuilder(d).SchemaDDL(schema)
}

// SchemaScript renders the full schema as a single executable SQL script.
func (c *Client) SchemaScript(dialectName string) (string, error) {
	stmts, err := c.SchemaDDL(dialectName)
	if err != nil {
		return "", err
	}
	if len(stmts) == 0 {
		return "", nil
	}
	return strings.Join(stmts, ";\n\n") + ";\n", nil
}

// Fingerprint computes the merkle fingerprint of the full schema.
func (c *Client) Fingerprint() (*fingerprint.SchemaFingerprint, error) {
	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	return fingerprint.Compute(schema)
}

// SaveMetadataToFile writes a JSON description of the schema's physical
// layout (tables, relation columns, junction tables) to the given path.
func (c *Client) SaveMetadataToFile(path string) error {
	schema, err := c.Schema()
	if err != nil {
		return err
	}
	return metadata.FromSchema(schema).SaveToFile(path)
}

// VerifySchema replays every node and executes the resulting DDL against
// a throwaway in-memory database, catching statements that only fail at
// execution time.
func (c *Client) VerifySchema(ctx context.Context) error {
	schema, err := c.Schema()
	if err != nil {
		return err
	}

	dev, err := devdb.New()
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := c.context(ctx)
	defer cancel()
	return dev.VerifySchema(ctx, schema)
}

// currentLock builds the lock file matching the node tree on disk.
func (c *Client) currentLock() (*lockfile.LockFile, error) {
	plan, err := c.fullPlan()
	if err != nil {
		return nil, err
	}
	fp, err := c.Fingerprint()
	if err != nil {
		return nil, err
	}
	return lockfile.FromPlan(plan, fp.Root), nil
}

// WriteLock records the current node order, checksums, and schema
// fingerprint in the lock file.
func (c *Client) WriteLock() error {
	lock, err := c.currentLock()
	if err != nil {
		return err
	}
	return lock.Write(c.config.LockfilePath)
}

// CheckLock compares the node tree on disk against the lock file.
func (c *Client) CheckLock() (*lockfile.VerificationResult, error) {
	lock, err := c.currentLock()
	if err != nil {
		return nil, err
	}
	return lockfile.Verify(c.config.LockfilePath, lock)
}
