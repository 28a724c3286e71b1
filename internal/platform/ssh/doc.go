// Package ssh provides the remote execution transport used to provision
// database hosts.
//
// A [Dialer] holds the credentials for one provisioning run and opens one
// authenticated [Conn] per host. Each command runs on its own session
// channel of that connection, and [Conn.Exec] returns only once the channel
// has closed, so commands on a host never overlap.
package ssh
