package galera

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/galeractl/internal/cluster"
)

const testStateUUID = "f39f96e8-c9f5-11ee-8a96-6248f8c9713f"

func testPeers(n int) cluster.PeerSet {
	peers := cluster.PeerSet{Cluster: cluster.Cluster{ID: 3, Name: "mtrh", StateUUID: testStateUUID}}
	for i := 0; i < n; i++ {
		peers.Nodes = append(peers.Nodes, cluster.Node{
			ID:        int64(i + 1),
			ClusterID: 3,
			Name:      "maria" + string(rune('1'+i)),
			Address:   "172.16.1." + string(rune('1'+i)),
		})
	}
	return peers
}

func testPlans(t *testing.T, n int) []cluster.Plan {
	t.Helper()
	plans, err := cluster.Plans(testPeers(n))
	require.NoError(t, err)
	return plans
}

func TestRender_Primary(t *testing.T) {
	r := NewRenderer(Options{})
	out := r.Render(testPlans(t, 3)[0])

	assert.Equal(t, DefaultConfigPath, out.Config.Path)
	assert.Equal(t, DefaultStatePath, out.State.Path)

	want := `[galera]
# Mandatory settings
wsrep_on                       = ON
binlog_format                  = row
default_storage_engine         = InnoDB
innodb_autoinc_lock_mode       = 2
bind-address                   = 0.0.0.0
wsrep_slave_threads            = 1
innodb_flush_log_at_trx_commit = 0
wsrep_provider                 = /usr/lib/galera/libgalera_smm.so
wsrep_cluster_name             = "galera-cluster-3"
wsrep_cluster_address          = "gcomm://172.16.1.1,172.16.1.2,172.16.1.3"
wsrep_sst_method               = rsync
wsrep_node_name                = maria1
wsrep_node_address             = 172.16.1.1
`
	assert.Equal(t, want, out.Config.Content)
	assert.NotContains(t, out.Config.Content, "wsrep_sst_donor")

	assert.Equal(t, `# GALERA saved state
version: 2.1
uuid:    f39f96e8-c9f5-11ee-8a96-6248f8c9713f
seqno:   -1
safe_to_bootstrap: 1
`, out.State.Content)
}

func TestRender_Joiner(t *testing.T) {
	r := NewRenderer(Options{})
	out := r.Render(testPlans(t, 3)[2])

	assert.Contains(t, out.Config.Content, "wsrep_sst_method               = rsync\nwsrep_sst_donor                = maria1\nwsrep_node_name                = maria3\n")
	assert.Contains(t, out.Config.Content, "wsrep_node_address             = 172.16.1.3\n")
	assert.Contains(t, out.State.Content, "safe_to_bootstrap: 0\n")
}

func TestRender_RolesForEveryPosition(t *testing.T) {
	r := NewRenderer(Options{})

	for n := 1; n <= 5; n++ {
		plans := testPlans(t, n)
		for i, plan := range plans {
			out := r.Render(plan)
			// Every member lists every peer, itself included, in snapshot order.
			assert.Contains(t, out.Config.Content, `"gcomm://`+strings.Join(plan.Peers.Addresses(), ",")+`"`)

			if i == 0 {
				assert.NotContains(t, out.Config.Content, "wsrep_sst_donor", "n=%d i=%d", n, i)
				assert.Contains(t, out.State.Content, "safe_to_bootstrap: 1")
				continue
			}
			assert.Contains(t, out.Config.Content, "wsrep_sst_donor                = maria1\n", "n=%d i=%d", n, i)
			assert.Contains(t, out.State.Content, "safe_to_bootstrap: 0")
		}
	}
}

func TestRender_IPv6Addresses(t *testing.T) {
	peers := testPeers(3)
	peers.Nodes[0].Address = "fd00::1"
	peers.Nodes[1].Address = "db2.internal"
	peers.Nodes[2].Address = "2001:db8::3"
	plans, err := cluster.Plans(peers)
	require.NoError(t, err)

	r := NewRenderer(Options{})
	out := r.Render(plans[2])

	assert.Contains(t, out.Config.Content, `wsrep_cluster_address          = "gcomm://[fd00::1],db2.internal,[2001:db8::3]"`+"\n")
	assert.Contains(t, out.Config.Content, "wsrep_node_address             = [2001:db8::3]\n")

	out = r.Render(plans[1])
	assert.Contains(t, out.Config.Content, "wsrep_node_address             = db2.internal\n")
}

func TestRender_ExplicitJoinerFirst(t *testing.T) {
	peers := testPeers(2)
	peers.Nodes[0].Role = cluster.RoleJoiner
	plans, err := cluster.Plans(peers)
	require.NoError(t, err)

	r := NewRenderer(Options{})
	first := r.Render(plans[0])
	assert.Contains(t, first.Config.Content, "wsrep_sst_donor                = maria2\n")
	assert.Contains(t, first.State.Content, "safe_to_bootstrap: 0\n")

	second := r.Render(plans[1])
	assert.NotContains(t, second.Config.Content, "wsrep_sst_donor")
	assert.Contains(t, second.State.Content, "safe_to_bootstrap: 1\n")
}

func TestRender_Deterministic(t *testing.T) {
	r := NewRenderer(Options{})
	plan := testPlans(t, 3)[1]

	first := r.Render(plan)
	second := r.Render(plan)
	assert.Equal(t, first, second)
}

func TestRender_CustomOptions(t *testing.T) {
	r := NewRenderer(Options{
		ConfigPath:        "/etc/my.cnf.d/galera.cnf",
		StatePath:         "/data/mysql/grastate.dat",
		ClusterNamePrefix: "prod-",
		Provider:          "/usr/lib64/galera-4/libgalera_smm.so",
		SSTMethod:         "mariabackup",
	})
	out := r.Render(testPlans(t, 2)[1])

	assert.Equal(t, "/etc/my.cnf.d/galera.cnf", out.Config.Path)
	assert.Equal(t, "/data/mysql/grastate.dat", out.State.Path)
	assert.Contains(t, out.Config.Content, `wsrep_cluster_name             = "prod-3"`)
	assert.Contains(t, out.Config.Content, "wsrep_provider                 = /usr/lib64/galera-4/libgalera_smm.so")
	assert.Contains(t, out.Config.Content, "wsrep_sst_method               = mariabackup")
}

func TestRender_MissingStateUUID(t *testing.T) {
	peers := testPeers(1)
	peers.Cluster.StateUUID = ""
	plans, err := cluster.Plans(peers)
	require.NoError(t, err)

	out := NewRenderer(Options{}).Render(plans[0])
	assert.Contains(t, out.State.Content, "uuid:    00000000-0000-0000-0000-000000000000\n")
}

func TestNewRenderer_AppliesDefaults(t *testing.T) {
	opts := NewRenderer(Options{SSTMethod: "mariabackup"}).Options()

	assert.Equal(t, DefaultConfigPath, opts.ConfigPath)
	assert.Equal(t, DefaultStatePath, opts.StatePath)
	assert.Equal(t, DefaultClusterNamePrefix, opts.ClusterNamePrefix)
	assert.Equal(t, DefaultProvider, opts.Provider)
	assert.Equal(t, "mariabackup", opts.SSTMethod)
}
