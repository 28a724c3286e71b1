package handlers

import (
	"fmt"
	"os"

	"github.com/imamik/galeractl/internal/util/keygen"
)

// Key types accepted by Keygen.
const (
	KeyTypeED25519 = "ed25519"
	KeyTypeRSA     = "rsa"
)

const rsaKeyBits = 4096

// Keygen writes a new SSH key pair to outputPath and outputPath.pub.
// Existing files are never overwritten.
func Keygen(outputPath, keyType string) error {
	pubPath := outputPath + ".pub"
	for _, p := range []string{outputPath, pubPath} {
		if fileExists(p) {
			return fmt.Errorf("%s already exists", p)
		}
	}

	var (
		kp  *keygen.KeyPair
		err error
	)
	switch keyType {
	case KeyTypeED25519:
		kp, err = keygen.GenerateED25519KeyPair("galeractl")
	case KeyTypeRSA:
		kp, err = keygen.GenerateRSAKeyPair(rsaKeyBits)
	default:
		return fmt.Errorf("unsupported key type %q: must be %q or %q", keyType, KeyTypeED25519, KeyTypeRSA)
	}
	if err != nil {
		return err
	}

	if err := writeFile(outputPath, kp.PrivateKey, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := writeFile(pubPath, kp.PublicKey, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}

	fmt.Printf("Private key: %s\n", outputPath)
	fmt.Printf("Public key:  %s\n", pubPath)
	fmt.Println()
	fmt.Println("Append the public key to ~/.ssh/authorized_keys of ssh.user on every")
	fmt.Printf("member host, then set ssh.private_key_path to %s.\n", outputPath)
	return nil
}

// writeFile writes data to a file (for testing injection).
var writeFile = os.WriteFile
