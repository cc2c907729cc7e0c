package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"safework/internal/app"
	"safework/internal/config"

	"github.com/google/uuid"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a SafeWorkApp. The caller must defer a.Close().
// operation identifies the CLI command being run (e.g. "Add", "Summary").
func newApp(cmd *cobra.Command, operation string, args []string) (*app.SafeWorkApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewSafeWorkApp(cmd.Context(), cfg, app.Options{
		Operation:  operation,
		Parameters: strings.Join(args, " "),
		Passphrase: passphraseSource(false),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// run opens the app, calls fn and closes the app, marking the operation
// failed when fn returns an error.
func run(cmd *cobra.Command, operation string, args []string, fn func(a *app.SafeWorkApp) error) (err error) {
	a, err := newApp(cmd, operation, args)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("saving data: %w", cerr)
		}
	}()

	if err := fn(a); err != nil {
		a.Fail(err)
		return err
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

var rootCmd = &cobra.Command{
	Use:          "safework",
	Short:        "Workplace safety records: PPE, trainings, documents and more",
	SilenceUsage: true,
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

		installationID := uuid.New().String()
		cfg := config.NewConfig(installationID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Installation ID: %s\n", installationID)
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
		fmt.Printf("Installation ID: %s\n", cfg.InstallationID)
		fmt.Printf("Base Dir:        %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:         %s\n", cfg.LogDir)
		fmt.Printf("Log Level:       %s\n", cfg.LogLevel)
		fmt.Printf("Storage:         %s\n", cfg.Storage.Type)
		fmt.Printf("Encryption:      %s\n", cfg.Encryption.Type)
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		pass, err := passphraseSource(true)()
		if err != nil {
			return err
		}
		if err := app.InitKeys(cfg, pass); err != nil {
			return err
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

// add command
var addCmd = &cobra.Command{
	Use:   "add COLLECTION KEY=VALUE...",
	Short: "Add a record",
	Example: `  safework add employee name="Ana Lima" department=Welding
  safework add ppe name=Helmet validityMonths=12 unitCost=45.90
  safework add delivery employeeId=1 ppeId=1 issueDate=2025-01-01`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "Add", args, func(a *app.SafeWorkApp) error {
			rec, err := a.Add(args[0], args[1:])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		})
	},
}

// list command
var listCmd = &cobra.Command{
	Use:   "list COLLECTION",
	Short: "List records",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		employee, _ := cmd.Flags().GetInt64("employee")

		return run(cmd, "List", args, func(a *app.SafeWorkApp) error {
			records, err := a.List(args[0], app.ListOptions{Status: status, EmployeeID: employee})
			if err != nil {
				return err
			}
			return printList(cmd, records)
		})
	},
}

// get command
var getCmd = &cobra.Command{
	Use:   "get COLLECTION ID",
	Short: "Show one record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		verbose, _ := cmd.Flags().GetBool("verbose")

		return run(cmd, "Get", args, func(a *app.SafeWorkApp) error {
			rec, err := a.Get(args[0], id)
			if err != nil {
				return err
			}
			if verbose {
				_, err := pp.Fprintln(cmd.OutOrStdout(), rec)
				return err
			}
			return printRecord(cmd, rec)
		})
	},
}

// update command
var updateCmd = &cobra.Command{
	Use:     "update COLLECTION ID KEY=VALUE...",
	Short:   "Change fields of a record",
	Example: `  safework update training 3 employeeIds=1,2,5 hours=8`,
	Args:    cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		return run(cmd, "Update", args, func(a *app.SafeWorkApp) error {
			rec, err := a.Update(args[0], id, args[2:])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		})
	},
}

// rm command
var rmCmd = &cobra.Command{
	Use:   "rm COLLECTION ID",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		return run(cmd, "Remove", args, func(a *app.SafeWorkApp) error {
			if err := a.Remove(args[0], id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s #%d\n", args[0], id)
			return nil
		})
	},
}

// renew command
var renewCmd = &cobra.Command{
	Use:   "renew COLLECTION ID DATE",
	Short: "Renew a delivery, training or document",
	Long: `Renew records a renewal. DATE is the new issue date of a delivery, the new
session date of a training, or the new expiry date of a document.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		return run(cmd, "Renew", args, func(a *app.SafeWorkApp) error {
			rec, err := a.Renew(args[0], id, args[2])
			if err != nil {
				return err
			}
			return printRecord(cmd, rec)
		})
	},
}

// summary command
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show dashboard counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "Summary", args, func(a *app.SafeWorkApp) error {
			return printSummary(cmd, a.Summary())
		})
	},
}

// expiring command
var expiringCmd = &cobra.Command{
	Use:   "expiring",
	Short: "List records that expire soon or have expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		return run(cmd, "Expiring", args, func(a *app.SafeWorkApp) error {
			renewals, err := a.Expiring(days)
			if err != nil {
				return err
			}
			if len(renewals) == 0 && !jsonOutput(cmd) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to renew.")
				return nil
			}
			return printList(cmd, renewals)
		})
	},
}

// export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write an XLSX report",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		return run(cmd, "Export", args, func(a *app.SafeWorkApp) error {
			if err := a.Export(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", out)
			return nil
		})
	},
}

// storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Inspect the storage backend",
}

var storageInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the dataset is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, "StorageInfo", args, func(a *app.SafeWorkApp) error {
			info, err := a.StorageInfo(cmd.Context())
			if err != nil {
				return err
			}
			return printStorageInfo(cmd, info)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Print results as JSON")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// storage subcommands
	storageCmd.AddCommand(storageInfoCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("status", "s", "", "Only records with this status (valid, expiring, expired)")
	listCmd.Flags().Int64P("employee", "e", 0, "Only records of this employee")
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolP("verbose", "v", false, "Pretty-print every field")
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(renewCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(expiringCmd)
	expiringCmd.Flags().IntP("days", "d", -1, "Horizon in days (default: expiring_days from the config)")
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("out", "o", "safework.xlsx", "Output file")
	rootCmd.AddCommand(storageCmd)
}
