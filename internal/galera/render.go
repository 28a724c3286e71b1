package galera

import (
	"bytes"
	"embed"
	"fmt"
	"net"
	"path"
	"strings"
	"text/template"

	"github.com/google/uuid"

	"github.com/imamik/galeractl/internal/cluster"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

const (
	// DefaultConfigPath is where MariaDB on Debian/Ubuntu picks up extra server config.
	DefaultConfigPath = "/etc/mysql/mariadb.conf.d/60-galera.cnf"
	// DefaultStatePath is the Galera saved-state file inside the data directory.
	DefaultStatePath = "/var/lib/mysql/grastate.dat"
	// DefaultClusterNamePrefix is prepended to the cluster id to form wsrep_cluster_name.
	DefaultClusterNamePrefix = "galera-cluster-"
	// DefaultProvider is the Galera wsrep provider library shipped with mariadb-server.
	DefaultProvider = "/usr/lib/galera/libgalera_smm.so"
	// DefaultSSTMethod is the state snapshot transfer method used by joiners.
	DefaultSSTMethod = "rsync"
)

// Options controls where rendered files go and the cluster-wide wsrep settings.
// Zero values fall back to the Default* constants.
type Options struct {
	ConfigPath        string `mapstructure:"config_path" yaml:"config_path"`
	StatePath         string `mapstructure:"state_path" yaml:"state_path"`
	ClusterNamePrefix string `mapstructure:"cluster_name_prefix" yaml:"cluster_name_prefix"`
	Provider          string `mapstructure:"provider" yaml:"provider"`
	SSTMethod         string `mapstructure:"sst_method" yaml:"sst_method"`
}

// File is rendered content and the absolute remote path it belongs at.
type File struct {
	Path    string
	Content string
}

// Rendered holds the two files a member needs before its first start.
type Rendered struct {
	Config File
	State  File
}

// Renderer produces member configuration from a provisioning plan.
type Renderer struct {
	opts Options
}

// NewRenderer creates a Renderer, applying defaults to a copy of opts.
func NewRenderer(opts Options) *Renderer {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}
	if opts.StatePath == "" {
		opts.StatePath = DefaultStatePath
	}
	if opts.ClusterNamePrefix == "" {
		opts.ClusterNamePrefix = DefaultClusterNamePrefix
	}
	if opts.Provider == "" {
		opts.Provider = DefaultProvider
	}
	if opts.SSTMethod == "" {
		opts.SSTMethod = DefaultSSTMethod
	}
	return &Renderer{opts: opts}
}

// Options returns the effective options, defaults included.
func (r *Renderer) Options() Options {
	return r.opts
}

type configVars struct {
	Provider       string
	ClusterName    string
	ClusterAddress string
	SSTMethod      string
	Donor          string
	NodeName       string
	NodeAddress    string
}

type stateVars struct {
	StateUUID       string
	SafeToBootstrap bool
}

// Render produces the replication config and the state marker for plan.
// The plan must come from cluster.Plans or cluster.PlanFor.
func (r *Renderer) Render(plan cluster.Plan) Rendered {
	cfg := configVars{
		Provider:       r.opts.Provider,
		ClusterName:    r.ClusterName(plan.Peers.Cluster),
		ClusterAddress: clusterAddress(plan.Peers),
		SSTMethod:      r.opts.SSTMethod,
		NodeName:       plan.Node.Name,
		NodeAddress:    wsrepAddress(plan.Node.Address),
	}
	if !plan.IsPrimary() && plan.Donor != nil {
		cfg.Donor = plan.Donor.Name
	}

	stateUUID := plan.Peers.Cluster.StateUUID
	if stateUUID == "" {
		stateUUID = uuid.Nil.String()
	}
	state := stateVars{
		StateUUID:       stateUUID,
		SafeToBootstrap: plan.IsPrimary(),
	}

	return Rendered{
		Config: File{Path: path.Clean(r.opts.ConfigPath), Content: execute("galera.cnf.tmpl", cfg)},
		State:  File{Path: path.Clean(r.opts.StatePath), Content: execute("grastate.dat.tmpl", state)},
	}
}

// clusterAddress joins every peer address for gcomm://, in PeerSet order.
func clusterAddress(peers cluster.PeerSet) string {
	addrs := peers.Addresses()
	for i, a := range addrs {
		addrs[i] = wsrepAddress(a)
	}
	return strings.Join(addrs, ",")
}

// wsrepAddress brackets IPv6 literals, which Galera requires in both
// wsrep_cluster_address and wsrep_node_address.
func wsrepAddress(addr string) string {
	if ip := net.ParseIP(addr); ip != nil && ip.To4() == nil {
		return "[" + addr + "]"
	}
	return addr
}

// ClusterName returns the wsrep_cluster_name for c.
func (r *Renderer) ClusterName(c cluster.Cluster) string {
	return fmt.Sprintf("%s%d", r.opts.ClusterNamePrefix, c.ID)
}

// execute runs an embedded template. The templates and their data types are
// fixed at compile time, so a failure here is a programming error.
func execute(name string, data any) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		panic(fmt.Sprintf("galera: failed to execute template %s: %v", name, err))
	}
	return buf.String()
}
