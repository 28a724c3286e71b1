// Package store persists clusters and their member nodes in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/imamik/galeractl/internal/cluster"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

var (
	// ErrNotFound is returned when a cluster or node does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a node name is already registered in the cluster.
	ErrConflict = errors.New("already exists")
)

const schema = `
CREATE TABLE IF NOT EXISTS clusters (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	state_uuid TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	cluster_id         INTEGER NOT NULL REFERENCES clusters(id),
	wsrep_node_name    TEXT NOT NULL,
	wsrep_node_address TEXT NOT NULL,
	role               TEXT NOT NULL DEFAULT '',
	UNIQUE (cluster_id, wsrep_node_name)
);
`

// Store is the metadata store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
	// newUUID generates the state UUID of new clusters.
	newUUID func() string
}

// Open opens or creates the database at path and applies the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on&_busy_timeout=5000"
	} else {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer at a time, and an in-memory database exists
	// only on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now, newUUID: newStateUUID}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateCluster records a new cluster and assigns its state UUID.
func (s *Store) CreateCluster(ctx context.Context, name string) (cluster.Cluster, error) {
	c := cluster.Cluster{
		Name:      name,
		StateUUID: s.newUUID(),
		CreatedAt: s.now().UTC().Truncate(time.Second),
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO clusters (name, state_uuid, created_at) VALUES (?, ?, ?)`,
		c.Name, c.StateUUID, c.CreatedAt)
	if err != nil {
		return cluster.Cluster{}, fmt.Errorf("failed to create cluster: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return cluster.Cluster{}, fmt.Errorf("failed to read cluster id: %w", err)
	}
	return c, nil
}

// GetCluster returns the cluster with the given id.
func (s *Store) GetCluster(ctx context.Context, id int64) (cluster.Cluster, error) {
	return getCluster(ctx, s.db, id)
}

// ListClusters returns every cluster ordered by id.
func (s *Store) ListClusters(ctx context.Context) ([]cluster.Cluster, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, state_uuid, created_at FROM clusters ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer rows.Close()

	clusters := []cluster.Cluster{}
	for rows.Next() {
		var c cluster.Cluster
		if err := rows.Scan(&c.ID, &c.Name, &c.StateUUID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	return clusters, nil
}

// CreateNode registers a node in an existing cluster. Node names are unique
// within a cluster.
func (s *Store) CreateNode(ctx context.Context, n cluster.Node) (cluster.Node, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (cluster_id, wsrep_node_name, wsrep_node_address, role) VALUES (?, ?, ?, ?)`,
		n.ClusterID, n.Name, n.Address, string(n.Role))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.ExtendedCode {
			case sqlite3.ErrConstraintUnique:
				return cluster.Node{}, fmt.Errorf("node %q in cluster %d: %w", n.Name, n.ClusterID, ErrConflict)
			case sqlite3.ErrConstraintForeignKey:
				return cluster.Node{}, fmt.Errorf("cluster %d: %w", n.ClusterID, ErrNotFound)
			}
		}
		return cluster.Node{}, fmt.Errorf("failed to create node: %w", err)
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return cluster.Node{}, fmt.Errorf("failed to read node id: %w", err)
	}
	return n, nil
}

// GetNode returns the node with the given id.
func (s *Store) GetNode(ctx context.Context, id int64) (cluster.Node, error) {
	var n cluster.Node
	var role string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, cluster_id, wsrep_node_name, wsrep_node_address, role FROM nodes WHERE id = ?`, id,
	).Scan(&n.ID, &n.ClusterID, &n.Name, &n.Address, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return cluster.Node{}, fmt.Errorf("node %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return cluster.Node{}, fmt.Errorf("failed to get node %d: %w", id, err)
	}
	n.Role = cluster.Role(role)
	return n, nil
}

// ListNodes returns the nodes of a cluster in registration order.
func (s *Store) ListNodes(ctx context.Context, clusterID int64) ([]cluster.Node, error) {
	if _, err := s.GetCluster(ctx, clusterID); err != nil {
		return nil, err
	}
	return listNodes(ctx, s.db, clusterID)
}

// PeerSet reads a cluster and its nodes in one transaction, so the snapshot
// never mixes two states of the node list.
func (s *Store) PeerSet(ctx context.Context, clusterID int64) (cluster.PeerSet, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return cluster.PeerSet{}, fmt.Errorf("failed to begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := getCluster(ctx, tx, clusterID)
	if err != nil {
		return cluster.PeerSet{}, err
	}
	nodes, err := listNodes(ctx, tx, clusterID)
	if err != nil {
		return cluster.PeerSet{}, err
	}
	return cluster.PeerSet{Cluster: c, Nodes: nodes}, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getCluster(ctx context.Context, q querier, id int64) (cluster.Cluster, error) {
	var c cluster.Cluster
	err := q.QueryRowContext(ctx,
		`SELECT id, name, state_uuid, created_at FROM clusters WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.StateUUID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cluster.Cluster{}, fmt.Errorf("cluster %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return cluster.Cluster{}, fmt.Errorf("failed to get cluster %d: %w", id, err)
	}
	return c, nil
}

func listNodes(ctx context.Context, q querier, clusterID int64) ([]cluster.Node, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, cluster_id, wsrep_node_name, wsrep_node_address, role FROM nodes WHERE cluster_id = ? ORDER BY id`,
		clusterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nodes of cluster %d: %w", clusterID, err)
	}
	defer rows.Close()

	nodes := []cluster.Node{}
	for rows.Next() {
		var n cluster.Node
		var role string
		if err := rows.Scan(&n.ID, &n.ClusterID, &n.Name, &n.Address, &role); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		n.Role = cluster.Role(role)
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list nodes of cluster %d: %w", clusterID, err)
	}
	return nodes, nil
}
