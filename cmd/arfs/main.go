package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"arfs-go/internal/app"
	"arfs-go/internal/arfs"
	"arfs-go/internal/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an ArFSApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "ListFolder", "Drives").
func newApp(ctx context.Context, operation string) (*app.ArFSApp, *config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewArFSApp(ctx, cfg, operation)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, cfg, nil
}

// prompt reads a secret from the terminal without echoing it.
func prompt(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no terminal available to read %s", strings.ToLower(label))
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

// entityRequest collects the shared entity flags.
func entityRequest(cmd *cobra.Command, id string) app.EntityRequest {
	owner, _ := cmd.Flags().GetString("owner")
	key, _ := cmd.Flags().GetString("drive-key")
	withKeys, _ := cmd.Flags().GetBool("with-keys")
	return app.EntityRequest{ID: id, Owner: owner, DriveKey: key, WithKeys: withKeys}
}

func printDrive(d *arfs.Drive) {
	fmt.Printf("%s  %-7s  %s  root:%s  tx:%s\n", d.DriveID, d.Privacy, d.Name, d.RootFolderID, d.TxID)
	if len(d.Key) > 0 {
		fmt.Printf("  driveKey:%s\n", d.Key)
	}
}

func printEntity(e *arfs.FileOrFolder) {
	if e.IsFolder() {
		fmt.Printf("%s  folder  %s  parent:%s  tx:%s\n", e.EntityID, e.Name, e.ParentFolderID, e.TxID)
		return
	}
	fmt.Printf("%s  file    %s  %s  %s  data:%s\n", e.EntityID, e.Name, e.Size.Format(), e.DataContentType, e.DataTxID)
	if len(e.FileKey) > 0 {
		fmt.Printf("  fileKey:%s\n", e.FileKey)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arfs",
	Short: "Read drives, folders and files from the Arweave file system",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := app.DefaultConfig()
		if err != nil {
			return fmt.Errorf("failed to build default config: %w", err)
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Gateway:  %s\n", cfg.Gateway.URL)
		fmt.Printf("Cache:    %s (%s) %s\n", cfg.Cache.Type, cfg.Cache.Compression, cfg.Cache.Dir)
		fmt.Printf("Keyring:  persist=%t\n", cfg.Keyring.Persist)
		return nil
	},
}

// drive command
var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Inspect a drive",
}

var driveGetCmd = &cobra.Command{
	Use:   "get DRIVE_ID",
	Short: "Show the latest revision of a drive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "GetDrive")
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := a.Drive(ctx, entityRequest(cmd, args[0]))
		if err != nil {
			return err
		}
		printDrive(d)
		return nil
	},
}

var driveOwnerCmd = &cobra.Command{
	Use:   "owner DRIVE_ID",
	Short: "Show the address that created a drive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "DriveOwner")
		if err != nil {
			return err
		}
		defer a.Close()

		owner, err := a.DriveOwner(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(owner)
		return nil
	},
}

// drives command
var drivesCmd = &cobra.Command{
	Use:   "drives ADDRESS",
	Short: "List every drive owned by an address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		usePassword, _ := cmd.Flags().GetBool("password")
		keys, _ := cmd.Flags().GetStringArray("drive-key")
		allRevisions, _ := cmd.Flags().GetBool("all-revisions")

		ctx := cmd.Context()
		a, cfg, err := newApp(ctx, "Drives")
		if err != nil {
			return err
		}
		defer a.Close()

		req := app.DrivesRequest{Address: args[0], DriveKeys: keys, AllRevisions: allRevisions}
		if usePassword {
			if req.Password, err = prompt("Drive password"); err != nil {
				return err
			}
		}
		if cfg.Keyring.Persist {
			if req.KeyringPassphrase, err = prompt("Keyring passphrase"); err != nil {
				return err
			}
			req.UnlockKeyring = true
		}

		drives, err := a.Drives(ctx, req)
		if err != nil {
			return err
		}
		if len(drives) == 0 {
			fmt.Println("No drives found.")
			return nil
		}
		for _, d := range drives {
			printDrive(d)
		}
		return nil
	},
}

// folder command
var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Inspect folders",
}

var folderGetCmd = &cobra.Command{
	Use:   "get FOLDER_ID",
	Short: "Show the latest revision of a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "GetFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.Folder(ctx, entityRequest(cmd, args[0]))
		if err != nil {
			return err
		}
		printEntity(f)
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list FOLDER_ID",
	Short: "List the contents of a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		maxDepth, _ := cmd.Flags().GetInt("max-depth")
		includeRoot, _ := cmd.Flags().GetBool("include-root")

		ctx := cmd.Context()
		a, _, err := newApp(ctx, "ListFolder")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListFolder(ctx, entityRequest(cmd, args[0]), maxDepth, includeRoot)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Folder is empty.")
			return nil
		}
		for _, e := range entries {
			kind := "file  "
			if e.IsFolder() {
				kind = "folder"
			}
			fmt.Printf("%s  %s  %s\n", kind, e.EntityID, e.Path)
		}
		return nil
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Inspect files",
}

var fileGetCmd = &cobra.Command{
	Use:   "get FILE_ID",
	Short: "Show the latest revision of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "GetFile")
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.File(ctx, entityRequest(cmd, args[0]))
		if err != nil {
			return err
		}
		printEntity(f)
		return nil
	},
}

// cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local entity cache",
}

var cacheSizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Show the number of cached entries per bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "CacheSize")
		if err != nil {
			return err
		}
		defer a.Close()

		sizes, err := a.CacheSizes(ctx)
		if err != nil {
			return err
		}
		buckets := make([]string, 0, len(sizes))
		for b := range sizes {
			buckets = append(buckets, b)
		}
		sort.Strings(buckets)
		for _, b := range buckets {
			fmt.Printf("%-15s %d\n", b, sizes[b])
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, _, err := newApp(ctx, "CacheClear")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ClearCache(ctx); err != nil {
			return err
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

// keyring command
var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manage the persisted drive keyring",
}

var keyringInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair protecting the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cfg, err := newApp(ctx, "KeyringInit")
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := prompt("New keyring passphrase")
		if err != nil {
			return err
		}
		confirm, err := prompt("Confirm passphrase")
		if err != nil {
			return err
		}
		if passphrase != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.InitKeyring(passphrase); err != nil {
			return err
		}
		fmt.Printf("Keyring keys written to %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

func addEntityFlags(cmd *cobra.Command) {
	cmd.Flags().String("owner", "", "Owner address (looked up when omitted)")
	cmd.Flags().String("drive-key", "", "Base64url drive key for private drives")
	cmd.Flags().Bool("with-keys", false, "Keep key material in private results")
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// drive subcommands
	driveCmd.AddCommand(driveGetCmd)
	driveCmd.AddCommand(driveOwnerCmd)
	addEntityFlags(driveGetCmd)

	drivesCmd.Flags().Bool("password", false, "Prompt for a drive password")
	drivesCmd.Flags().StringArray("drive-key", nil, "Base64url drive key to try (repeatable)")
	drivesCmd.Flags().Bool("all-revisions", false, "Include every revision of each drive")

	// folder subcommands
	folderCmd.AddCommand(folderGetCmd)
	folderCmd.AddCommand(folderListCmd)
	addEntityFlags(folderGetCmd)
	addEntityFlags(folderListCmd)
	folderListCmd.Flags().IntP("max-depth", "d", 0, "Levels of subfolders to descend into")
	folderListCmd.Flags().Bool("include-root", false, "Include the folder itself")

	// file subcommands
	fileCmd.AddCommand(fileGetCmd)
	addEntityFlags(fileGetCmd)

	// cache subcommands
	cacheCmd.AddCommand(cacheSizeCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// keyring subcommands
	keyringCmd.AddCommand(keyringInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(driveCmd)
	rootCmd.AddCommand(drivesCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(keyringCmd)
}
