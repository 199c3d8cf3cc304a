package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newGenKeyCommand() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "genkey",
		Short: "Generate a private key for signing bearer tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kid, err := genKey(folder)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "private key written\nKID: %s\n", kid)
			return nil
		},
	}

	cmd.Flags().StringVar(&folder, "folder", "zarf/keys", "folder the key file is written to")

	return cmd
}

// genKey writes a new RSA private key to folder, named by a fresh key id.
func genKey(folder string) (string, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}

	if err := os.MkdirAll(folder, 0o700); err != nil {
		return "", fmt.Errorf("creating folder: %w", err)
	}

	kid := uuid.NewString()

	file, err := os.OpenFile(filepath.Join(folder, kid+".pem"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating private file: %w", err)
	}
	defer file.Close()

	block := pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	}

	if err := pem.Encode(file, &block); err != nil {
		return "", fmt.Errorf("encoding to private file: %w", err)
	}

	return kid, nil
}
