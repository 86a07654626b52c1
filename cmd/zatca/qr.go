package main

import (
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-api/internal/domain/zatca"
)

func newQRCmd() *cobra.Command {
	qr := &cobra.Command{
		Use:   "qr",
		Short: "Utilidades del QR TLV",
	}
	qr.AddCommand(&cobra.Command{
		Use:     "decode <payload>",
		Short:   "Decodifica un payload Base64 del QR",
		Example: `  zatca qr decode AQxGaXJveiBBc2hyYWYCCjEyMzQ1Njc4OTE=`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := zatca.DecodeQRData(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, f := range fields {
				value := string(f.Value)
				if zatca.IsBinaryTag(f.Tag) || !utf8.Valid(f.Value) {
					value = base64.StdEncoding.EncodeToString(f.Value)
				}
				name := zatca.TagName(f.Tag)
				if name == "" {
					name = "?"
				}
				fmt.Fprintf(w, "%d %-20s %s\n", f.Tag, name, value)
			}
			return nil
		},
	})
	return qr
}
