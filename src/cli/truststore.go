// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/alymahmoudd/teamscale-upload/src/internal/security/truststore"
)

// newTrustStoreCmd creates the subcommand that decodes a trust store and
// lists its entries, the built-in counterpart of `keytool -list` referred to
// by the trust store error messages.
func newTrustStoreCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "truststore [KEYSTORE_FILE]",
		Short: "List the certificates stored in a trust store file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("TEAMSCALE_TRUSTSTORE_PASSWORD")
			}

			store, err := truststore.Load(args[0], password)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), renderStoreTable(store))
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "password of the trust store")
	return cmd
}

// renderStoreTable renders the store's entries as a markdown table.
func renderStoreTable(store *truststore.Store) string {
	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	table.Header([]string{"Alias", "Subject", "Issuer", "Valid Until", "Key"})

	var rows [][]string
	for _, entry := range store.Entries() {
		for _, cert := range entry.Chain {
			keySize := "unknown"
			if rsaKey, ok := cert.PublicKey.(*rsa.PublicKey); ok {
				keySize = fmt.Sprintf("%d-bit RSA", rsaKey.Size()*8)
			} else if ecdsaKey, ok := cert.PublicKey.(*ecdsa.PublicKey); ok {
				keySize = fmt.Sprintf("%d-bit ECDSA", ecdsaKey.Curve.Params().BitSize)
			}

			rows = append(rows, []string{
				entry.Alias,
				cert.Subject.CommonName,
				cert.Issuer.CommonName,
				cert.NotAfter.Format("2006-01-02"),
				keySize,
			})
		}
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}
