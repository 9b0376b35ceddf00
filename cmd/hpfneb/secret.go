package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/ledger"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/vault"
)

func runSecret(args []string) error {
	if len(args) == 0 {
		printSecretUsage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	l, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer l.Close()

	switch args[0] {
	case "list":
		return secretList(l)
	case "set":
		return secretSet(l, openVault(), args[1:])
	case "get":
		return secretGet(l, openVault(), args[1:])
	case "delete":
		return secretDelete(l, args[1:])
	default:
		printSecretUsage()
		return fmt.Errorf("unknown secret command: %s", args[0])
	}
}

func printSecretUsage() {
	fmt.Fprintf(os.Stderr, `Usage: hpfneb secret <command>

Commands:
  list                              List stored credentials (metadata only)
  set <name> --value <str> [--description <text>]  Store a credential
  set <name> --file <path> [--description <text>]  Store a credential from a file
  get <name>                        Retrieve and decrypt a credential
  delete <name>                     Delete a credential

Environment:
  HPFNEB_VAULT_PASSPHRASE           Required for set/get. Encryption passphrase.
`)
}

func openVault() *vault.Vault {
	return vault.New(os.Getenv("HPFNEB_VAULT_PASSPHRASE"))
}

func requirePassphrase() error {
	if os.Getenv("HPFNEB_VAULT_PASSPHRASE") == "" {
		return fmt.Errorf("HPFNEB_VAULT_PASSPHRASE environment variable is required")
	}
	return nil
}

func secretList(l *ledger.Ledger) error {
	secrets, err := l.ListSecrets()
	if err != nil {
		return err
	}
	if len(secrets) == 0 {
		fmt.Println("No credentials stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION\tUPDATED")
	for _, s := range secrets {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Description, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func secretSet(l *ledger.Ledger, v *vault.Vault, args []string) error {
	if err := requirePassphrase(); err != nil {
		return err
	}
	if len(args) < 3 {
		return fmt.Errorf("usage: hpfneb secret set <name> --value <string> | --file <path> [--description <text>]")
	}

	name := args[0]
	var value []byte

	switch args[1] {
	case "--value":
		value = []byte(args[2])
	case "--file":
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		value = data
	default:
		return fmt.Errorf("expected --value or --file, got %s", args[1])
	}

	description := ""
	for i := 3; i < len(args)-1; i++ {
		if args[i] == "--description" {
			description = args[i+1]
			break
		}
	}

	ciphertext, nonce, err := v.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypt: %w", err)
	}

	if err := l.SaveSecret(&ledger.Secret{
		Name:        name,
		Description: description,
		Value:       ciphertext,
		Nonce:       nonce,
	}); err != nil {
		return err
	}
	fmt.Printf("Credential %q saved\n", name)
	return nil
}

func secretGet(l *ledger.Ledger, v *vault.Vault, args []string) error {
	if err := requirePassphrase(); err != nil {
		return err
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: hpfneb secret get <name>")
	}

	sec, err := l.GetSecret(args[0])
	if err != nil {
		return err
	}
	if sec == nil {
		return fmt.Errorf("credential %q not found", args[0])
	}

	plaintext, err := v.Decrypt(sec.Value, sec.Nonce)
	if err != nil {
		return fmt.Errorf("decrypt: %w", err)
	}

	fmt.Print(string(plaintext))
	if len(plaintext) > 0 && plaintext[len(plaintext)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

func secretDelete(l *ledger.Ledger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: hpfneb secret delete <name>")
	}
	if err := l.DeleteSecret(args[0]); err != nil {
		return err
	}
	fmt.Printf("Credential %q deleted\n", args[0])
	return nil
}
