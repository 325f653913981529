package commands

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/benvon/hotsauce-api/internal/services/session"
	"github.com/spf13/cobra"
)

// NewKeygenCmd creates the keygen command
func NewKeygenCmd() *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a random SESSION_SECRET",
		Long:  "Generate a random session secret. Rotating it logs every user out.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if size < session.MinSecretLength {
				return fmt.Errorf("--bytes must be at least %d", session.MinSecretLength)
			}
			secret, err := generateSecret(size)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "SESSION_SECRET=%s\n", secret)
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "bytes", 48, "Number of random bytes before encoding")
	return cmd
}

func generateSecret(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
