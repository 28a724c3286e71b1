// Package introspect reads the live state of a provisioned MariaDB server:
// global variables and status, the Galera membership summary, schema
// metadata and the process list.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DefaultPort is the MariaDB port used when the host carries none.
const DefaultPort = "3306"

// Credentials authenticate against the database server of a node.
type Credentials struct {
	User     string
	Password string
}

// Report is a point-in-time view of one server.
type Report struct {
	Host            string              `json:"host"`
	Galera          Galera              `json:"galera"`
	GlobalVariables map[string]string   `json:"globalVariables"`
	GlobalStatus    map[string]string   `json:"globalStatus"`
	TableStatus     []map[string]string `json:"tableStatus"`
	FunctionStatus  []map[string]string `json:"functionStatus"`
	ProcedureStatus []map[string]string `json:"procedureStatus"`
	Triggers        []map[string]string `json:"triggers"`
	ProcessList     []map[string]string `json:"processList"`
}

// Galera summarizes the wsrep status of a server.
type Galera struct {
	Enabled      bool   `json:"enabled"`
	ClusterName  string `json:"clusterName,omitempty"`
	ClusterSize  int    `json:"clusterSize"`
	Status       string `json:"clusterStatus,omitempty"`
	LocalState   string `json:"localState,omitempty"`
	Ready        bool   `json:"ready"`
	Connected    bool   `json:"connected"`
	IncomingAddr string `json:"incomingAddresses,omitempty"`
}

// Queries are the statements a report is built from.
type Queries struct {
	GlobalVariables string
	GlobalStatus    string
	TableStatus     string
	FunctionStatus  string
	ProcedureStatus string
	Triggers        string
	ProcessList     string
}

// MariaDBQueries reads the server's own metadata and information_schema.
var MariaDBQueries = Queries{
	GlobalVariables: "SHOW GLOBAL VARIABLES",
	GlobalStatus:    "SHOW GLOBAL STATUS",
	TableStatus:     "SHOW TABLE STATUS FROM `information_schema`",
	FunctionStatus:  "SHOW FUNCTION STATUS WHERE `Db` = 'information_schema'",
	ProcedureStatus: "SHOW PROCEDURE STATUS WHERE `Db` = 'information_schema'",
	Triggers:        "SHOW TRIGGERS FROM `information_schema`",
	ProcessList: "SELECT `ID`, `USER`, `HOST`, `DB`, `COMMAND`, `TIME`, `STATE`, LEFT(`INFO`, 51200) AS `Info`, " +
		"`TIME_MS`, `STAGE`, `MAX_STAGE`, `PROGRESS`, `MEMORY_USED`, `MAX_MEMORY_USED`, `EXAMINED_ROWS`, `QUERY_ID` " +
		"FROM `information_schema`.`PROCESSLIST`",
}

// Inspector connects to MariaDB servers and builds reports.
type Inspector struct {
	Timeout time.Duration
	Queries Queries
}

// New creates an Inspector with the given connect and read timeout.
func New(timeout time.Duration) *Inspector {
	return &Inspector{Timeout: timeout, Queries: MariaDBQueries}
}

// Inspect opens a short-lived connection to host and builds a Report.
func (i *Inspector) Inspect(ctx context.Context, host string, creds Credentials) (*Report, error) {
	connector, err := mysql.NewConnector(Config(host, creds, i.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to configure database client: %w", err)
	}
	db := sql.OpenDB(connector)
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database on %s: %w", host, err)
	}

	report, err := Collect(ctx, db, i.Queries)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", host, err)
	}
	report.Host = host
	return report, nil
}

// Config builds the driver configuration for host. A host without a port
// gets DefaultPort.
func Config(host string, creds Credentials, timeout time.Duration) *mysql.Config {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, DefaultPort)
	}

	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net = "tcp"
	cfg.Addr = host
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	return cfg
}

// Collect runs every query in q against db.
func Collect(ctx context.Context, db *sql.DB, q Queries) (*Report, error) {
	r := &Report{}
	var err error

	if r.GlobalVariables, err = queryPairs(ctx, db, q.GlobalVariables); err != nil {
		return nil, fmt.Errorf("global variables: %w", err)
	}
	if r.GlobalStatus, err = queryPairs(ctx, db, q.GlobalStatus); err != nil {
		return nil, fmt.Errorf("global status: %w", err)
	}

	lists := []struct {
		name  string
		query string
		dst   *[]map[string]string
	}{
		{"table status", q.TableStatus, &r.TableStatus},
		{"function status", q.FunctionStatus, &r.FunctionStatus},
		{"procedure status", q.ProcedureStatus, &r.ProcedureStatus},
		{"triggers", q.Triggers, &r.Triggers},
		{"process list", q.ProcessList, &r.ProcessList},
	}
	for _, l := range lists {
		if *l.dst, err = queryRows(ctx, db, l.query); err != nil {
			return nil, fmt.Errorf("%s: %w", l.name, err)
		}
	}

	r.Galera = GaleraFromStatus(r.GlobalVariables, r.GlobalStatus)
	return r, nil
}

// GaleraFromStatus derives the Galera summary from global variables and
// status.
func GaleraFromStatus(vars, status map[string]string) Galera {
	size, _ := strconv.Atoi(status["wsrep_cluster_size"])
	return Galera{
		Enabled:      vars["wsrep_on"] == "ON",
		ClusterName:  vars["wsrep_cluster_name"],
		ClusterSize:  size,
		Status:       status["wsrep_cluster_status"],
		LocalState:   status["wsrep_local_state_comment"],
		Ready:        status["wsrep_ready"] == "ON",
		Connected:    status["wsrep_connected"] == "ON",
		IncomingAddr: status["wsrep_incoming_addresses"],
	}
}

// queryPairs reads a two-column result into a map.
func queryPairs(ctx context.Context, db *sql.DB, query string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		out[name] = value.String
	}
	return out, rows.Err()
}

// queryRows reads any result into one map per row, keyed by column name.
// NULL becomes the empty string.
func queryRows(ctx context.Context, db *sql.DB, query string) ([]map[string]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []map[string]string{}
	values := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			row[c] = values[i].String
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
