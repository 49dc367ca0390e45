package main

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Encrypt and decrypt dataset files",
	Long:  "Seals plaintext JSON produced by collaborators into the vault envelope format, and opens envelopes for inspection.",
}

var vaultSealCmd = &cobra.Command{
	Use:   "seal <plaintext.json> <envelope.json>",
	Short: "Encrypt a plaintext JSON file",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := cfg.Validate("vault"); err != nil {
			return err
		}
		v, err := openVault()
		if err != nil {
			return err
		}
		plaintext, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "vault: read %s", args[0])
		}
		return v.SaveRaw(plaintext, args[1])
	},
}

var vaultOpenCmd = &cobra.Command{
	Use:   "open <envelope.json> [plaintext.json]",
	Short: "Decrypt an envelope to a file or stdout",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := cfg.Validate("vault"); err != nil {
			return err
		}
		v, err := openVault()
		if err != nil {
			return err
		}
		raw, err := v.LoadRaw(args[0])
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(raw), "", "  "); err != nil {
			return eris.Wrap(err, "vault: format plaintext")
		}
		buf.WriteByte('\n')
		out := buf.Bytes()

		if len(args) == 2 {
			return eris.Wrapf(os.WriteFile(args[1], out, 0o600), "vault: write %s", args[1])
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	vaultCmd.AddCommand(vaultSealCmd)
	vaultCmd.AddCommand(vaultOpenCmd)
	rootCmd.AddCommand(vaultCmd)
}
