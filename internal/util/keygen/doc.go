// Package keygen generates key pairs for SSH authentication.
//
// Private keys are PEM encoded and public keys use the OpenSSH
// authorized_keys format, ready to append to a database host's
// ~/.ssh/authorized_keys before provisioning.
package keygen
