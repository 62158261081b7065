package graphexport

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"isacore/internal/logging"
)

const defaultBatchSize = 500

// Runner executes one write statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Neo4jExporter writes exported graphs with idempotent UNWIND/MERGE batches.
type Neo4jExporter struct {
	Runner    Runner
	BatchSize int
}

var schemaStatements = []string{
	`CREATE CONSTRAINT isa_node_id IF NOT EXISTS FOR (n:IsaNode) REQUIRE n.id IS UNIQUE`,
}

// Export merges the nodes of every graph, then their edges.
func (e *Neo4jExporter) Export(ctx context.Context, graphs []Graph) error {
	for _, stmt := range schemaStatements {
		if err := e.Runner.Run(ctx, stmt, nil); err != nil {
			logging.L().Warn("neo4j schema init failed (continuing)", "error", err)
		}
	}
	syncedAt := time.Now().UTC().Format(time.RFC3339Nano)
	byLabel := make(map[string][]map[string]any)
	var labels []string
	var edges []map[string]any
	for _, g := range graphs {
		for _, n := range g.Nodes {
			if _, ok := byLabel[n.Label]; !ok {
				labels = append(labels, n.Label)
			}
			byLabel[n.Label] = append(byLabel[n.Label], map[string]any{
				"id": n.ID, "name": n.Name, "type": n.Type, "scope": n.Scope, "synced_at": syncedAt,
			})
		}
		for _, ed := range g.Edges {
			edges = append(edges, map[string]any{"from": ed.From, "to": ed.To})
		}
	}
	for _, l := range labels {
		// Labels come from the fixed Label* constants, never from input.
		cypher := fmt.Sprintf(`UNWIND $rows AS row
MERGE (n:IsaNode {id: row.id})
SET n:%s, n.name = row.name, n.type = row.type, n.scope = row.scope, n.synced_at = row.synced_at`, l)
		if err := e.batches(ctx, cypher, byLabel[l]); err != nil {
			return fmt.Errorf("merge %s nodes: %w", l, err)
		}
	}
	const edgeCypher = `UNWIND $rows AS row
MATCH (a:IsaNode {id: row.from}), (b:IsaNode {id: row.to})
MERGE (a)-[:FEEDS]->(b)`
	if err := e.batches(ctx, edgeCypher, edges); err != nil {
		return fmt.Errorf("merge edges: %w", err)
	}
	logging.L().Info("graph exported", "graphs", len(graphs), "edges", len(edges))
	return nil
}

func (e *Neo4jExporter) batches(ctx context.Context, cypher string, rows []map[string]any) error {
	size := e.BatchSize
	if size <= 0 {
		size = defaultBatchSize
	}
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		if err := e.Runner.Run(ctx, cypher, map[string]any{"rows": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// DriverRunner runs each statement in its own managed write transaction.
type DriverRunner struct {
	Driver   neo4j.DriverWithContext
	Database string
}

func (r *DriverRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	session := r.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: r.Database})
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Consume(ctx)
	})
	return err
}

// Close closes the driver.
func (r *DriverRunner) Close(ctx context.Context) error { return r.Driver.Close(ctx) }

// DialFromEnv connects using NEO4J_URI, NEO4J_USER (default neo4j),
// NEO4J_PASSWORD and NEO4J_DATABASE. It returns nil, nil when NEO4J_URI is
// unset.
func DialFromEnv(ctx context.Context) (*DriverRunner, error) {
	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, nil
	}
	user := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if user == "" {
		user = "neo4j"
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, os.Getenv("NEO4J_PASSWORD"), ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return &DriverRunner{Driver: driver, Database: strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))}, nil
}
