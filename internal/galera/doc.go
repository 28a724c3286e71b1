// Package galera renders MariaDB Galera member configuration and the ordered
// shell steps that install it on a host.
//
// Both the Renderer and the Sequencer are pure: the same plan always yields
// byte-identical output. Writing files and running commands is left to the
// remote session.
package galera
