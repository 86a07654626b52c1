package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/zatca-api/pkg/logger"
)

var version = "1.0.0"

func newRootCmd() *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:   "zatca",
		Short: "Generador offline de facturas electrónicas ZATCA",
		Long: `zatca genera los artefactos de una factura electrónica ZATCA (Arabia Saudita)
a partir de un archivo JSON: XML UBL 2.1, JSON estructurado, hash SHA-256 y el QR TLV.

También decodifica QR existentes y calcula el hash de un XML.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Logs de depuración en stderr")

	newLogger := func() *logger.Logger {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.NewWithWriter(logger.Config{Env: "development", Level: level}, os.Stderr).WithComponent("cli")
	}

	root.AddCommand(newGenerateCmd(newLogger), newQRCmd(), newHashCmd())
	return root
}
