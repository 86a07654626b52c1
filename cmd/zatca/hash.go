package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <file.xml>",
		Short: "Calcula el SHA-256 (hex y Base64) de un XML tal cual está en disco",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("leer %s: %w", args[0], err)
			}
			h, err := zatca.NewHasher().Hash(string(raw))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "hex:    %s\nbase64: %s\n", h.Hex, h.Base64)
			return nil
		},
	}
}
