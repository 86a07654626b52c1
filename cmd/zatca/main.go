// Command zatca genera facturas ZATCA sin servidor: XML UBL 2.1, JSON, hash y QR TLV.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
