package nmm

import (
	"fmt"
	"strings"

	"github.com/arthur-debert/nmm/internal/version"
	"github.com/arthur-debert/nmm/pkg/commands"
	"github.com/arthur-debert/nmm/pkg/config"
	"github.com/arthur-debert/nmm/pkg/display"
	"github.com/arthur-debert/nmm/pkg/filesystem"
	"github.com/arthur-debert/nmm/pkg/logging"
	"github.com/arthur-debert/nmm/pkg/paths"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// app carries the global flags and the lazily loaded configuration.
type app struct {
	fs    afero.Fs
	paths paths.Paths

	verbosity  int
	configFile string
	saveDir    string
	noColor    bool
	color      string
	format     display.Format

	cfg *config.Config
}

func (a *app) env() (commands.Env, error) {
	if a.cfg == nil {
		overrides := map[string]interface{}{}
		if a.saveDir != "" {
			overrides["noita.save_dir"] = a.saveDir
		}
		cfg, err := config.Load(config.Options{
			File:      a.configFile,
			Overrides: overrides,
			Paths:     a.paths,
			Fs:        a.fs,
		})
		if err != nil {
			return commands.Env{}, err
		}
		a.cfg = cfg
		log.Debug().
			Str("save_dir", cfg.Noita.SaveDir).
			Str("packs", cfg.Packs.Dir).
			Str("codec", cfg.Settings.Codec).
			Msg("Configuration loaded")
	}
	return commands.Env{Fs: a.fs, Config: a.cfg}, nil
}

func (a *app) printer(cmd *cobra.Command) *display.Printer {
	format := a.format
	if a.noColor {
		format = display.FormatText
	}
	return display.NewPrinter(cmd.OutOrStdout(), format)
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(filesystem.NewOS(), nil)
}

func newRootCmd(fsys afero.Fs, p paths.Paths) *cobra.Command {
	a := &app{fs: fsys, paths: p}

	rootCmd := &cobra.Command{
		Use:     "nmm",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.SetupLogger(a.verbosity)
			logging.LogCommand(cmd.CommandPath(), args)
			format, err := display.ParseFormat(a.color)
			if err != nil {
				return err
			}
			a.format = format
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf(MsgErrNoCommand)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringVar(&a.saveDir, "save-dir", "", MsgFlagSaveDir)
	rootCmd.PersistentFlags().StringVar(&a.color, "color", "auto", MsgFlagColor)
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, MsgFlagNoColor)

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "COMMANDS:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	rootCmd.AddCommand(newSettingsCmd(a))
	rootCmd.AddCommand(newPackCmd(a))
	rootCmd.AddCommand(newModsCmd(a))
	rootCmd.AddCommand(newBackupCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "settings",
		Short:   MsgSettingsShort,
		GroupID: "core",
	}

	var prefix string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: MsgSettingsListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			entries, err := commands.ListSettings(commands.ListSettingsOptions{Env: env, Prefix: prefix})
			if err != nil {
				return err
			}
			return a.printer(cmd).Settings(entries)
		},
	}
	listCmd.Flags().StringVar(&prefix, "prefix", "", MsgFlagPrefix)

	getCmd := &cobra.Command{
		Use:   "get KEY",
		Short: MsgSettingsGetShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			entry, err := commands.GetSetting(env, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd).Setting(entry)
			return nil
		},
	}

	var depth int
	var values bool
	treeCmd := &cobra.Command{
		Use:   "tree [GROUP]",
		Short: MsgSettingsTreeShort,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			group, err := commands.SettingsTree(env, path)
			if err != nil {
				return err
			}
			return a.printer(cmd).Tree(group, display.TreeOptions{MaxDepth: depth, Values: values})
		},
	}
	treeCmd.Flags().IntVar(&depth, "depth", 0, MsgFlagDepth)
	treeCmd.Flags().BoolVar(&values, "values", false, MsgFlagValues)

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: MsgSettingsDumpShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			store, err := env.LoadSettings()
			if err != nil {
				return err
			}
			return display.Dump(cmd.OutOrStdout(), store, format)
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "yaml", MsgFlagFormat)

	unpackCmd := &cobra.Command{
		Use:   "unpack OUT",
		Short: MsgSettingsUnpack,
		Long:  MsgSettingsUnpackLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			n, err := commands.UnpackSettings(env, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd).Success(MsgUnpacked, n, args[0])
			return nil
		},
	}

	var exportPrefix string
	exportCmd := &cobra.Command{
		Use:   "export OUT",
		Short: MsgSettingsExportShort,
		Long:  MsgSettingsExportLong,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.ExportSettings(commands.ExportSettingsOptions{Env: env, Out: args[0], Prefix: exportPrefix})
			if err != nil {
				return err
			}
			a.printer(cmd).Success(MsgSettingsExported, res.Entries, res.Path, res.Codec)
			return nil
		},
	}
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "", MsgFlagExportPrefix)

	var importDryRun bool
	importCmd := &cobra.Command{
		Use:   "import IN",
		Short: MsgSettingsImportShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.ImportSettings(commands.ImportSettingsOptions{Env: env, In: args[0], DryRun: importDryRun})
			if err != nil {
				return err
			}
			p := a.printer(cmd)
			for _, b := range res.Backups {
				p.Info(MsgBackupsTaken, b.Name, b.ID())
			}
			p.Success(MsgSettingsImported, res.Imported, res.Total)
			if importDryRun {
				p.Info(MsgDryRunNotice)
			}
			return nil
		},
	}
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, MsgFlagDryRun)

	cmd.AddCommand(listCmd, getCmd, treeCmd, dumpCmd, unpackCmd, exportCmd, importCmd)
	return cmd
}

// packFilesCompletion completes pack file names.
func packFilesCompletion(a *app) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		env, err := a.env()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		res, err := commands.ListPacks(env)
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		var names []string
		for _, p := range res.Packs {
			if strings.HasPrefix(p.FileName, toComplete) {
				names = append(names, p.FileName+"\t"+p.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

func newPackCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pack",
		Short:   MsgPackShort,
		GroupID: "core",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: MsgPackListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.ListPacks(env)
			if err != nil {
				return err
			}
			pr := a.printer(cmd)
			if err := pr.Packs(res.Packs); err != nil {
				return err
			}
			for _, f := range res.Failures {
				pr.Warning(MsgPackUnreadable, f.FileName, f.Err)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:               "show FILE",
		Short:             MsgPackShowShort,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packFilesCompletion(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.ShowPack(env, args[0])
			if err != nil {
				return err
			}
			return a.printer(cmd).Pack(res.Pack, res.Installed)
		},
	}

	var (
		includes []string
		all      bool
		mods     []string
		preview  bool
	)
	createCmd := &cobra.Command{
		Use:     "create NAME",
		Short:   MsgPackCreateShort,
		Long:    MsgPackCreateLong,
		Example: MsgPackCreateExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			opts := commands.CreatePackOptions{
				Env:      env,
				Name:     args[0],
				Includes: includes,
				All:      all,
				DryRun:   preview,
			}
			if cmd.Flags().Changed("mods") {
				opts.Mods = append([]string{}, mods...)
			}
			res, err := commands.CreatePack(opts)
			if err != nil {
				return err
			}
			pr := a.printer(cmd)
			if preview {
				if err := pr.Tree(res.Tree, display.TreeOptions{Inclusion: true}); err != nil {
					return err
				}
				pr.Info(MsgPackPreview, res.Pack.Name, len(res.Pack.Mods), res.Exported)
				return nil
			}
			pr.Success(MsgPackCreated, res.Pack.Name, res.FileName, len(res.Pack.Mods), res.Exported)
			return nil
		},
	}
	createCmd.Flags().StringArrayVar(&includes, "include", nil, MsgFlagInclude)
	createCmd.Flags().BoolVar(&all, "all", false, MsgFlagAll)
	createCmd.Flags().StringSliceVar(&mods, "mods", nil, MsgFlagMods)
	createCmd.Flags().BoolVar(&preview, "dry-run", false, MsgFlagDryRun)

	var dryRun bool
	applyCmd := &cobra.Command{
		Use:               "apply FILE",
		Short:             MsgPackApplyShort,
		Long:              MsgPackApplyLong,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packFilesCompletion(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.ApplyPack(commands.ApplyPackOptions{Env: env, File: args[0], DryRun: dryRun})
			if err != nil {
				return err
			}
			pr := a.printer(cmd)
			for _, b := range res.Backups {
				pr.Info(MsgBackupsTaken, b.Name, b.ID())
			}
			pr.ApplyResult(res.Pack.Name, res.Result, res.Missing, dryRun)
			if dryRun {
				pr.Info(MsgDryRunNotice)
			}
			return nil
		},
	}
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false, MsgFlagDryRun)

	deleteCmd := &cobra.Command{
		Use:               "delete FILE",
		Short:             MsgPackDeleteShort,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: packFilesCompletion(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			if err := commands.DeletePack(env, args[0]); err != nil {
				return err
			}
			a.printer(cmd).Success(MsgPackDeleted, args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, createCmd, applyCmd, deleteCmd)
	return cmd
}

func newModsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mods",
		Short:   MsgModsShort,
		GroupID: "core",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: MsgModsListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			mods, err := commands.ListMods(env)
			if err != nil {
				return err
			}
			return a.printer(cmd).Mods(mods)
		},
	})
	return cmd
}

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "backup",
		Short:   MsgBackupShort,
		GroupID: "core",
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: MsgBackupListShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			entries, err := commands.ListBackups(env)
			if err != nil {
				return err
			}
			return a.printer(cmd).Backups(entries)
		},
	}
	restoreCmd := &cobra.Command{
		Use:   "restore ID",
		Short: MsgBackupRestoreShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			res, err := commands.RestoreBackup(env, args[0])
			if err != nil {
				return err
			}
			a.printer(cmd).Success(MsgBackupRestored, res.Target, res.Entry.ID())
			return nil
		},
	}
	cmd.AddCommand(listCmd, restoreCmd)
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		GroupID: "misc",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: MsgConfigInitShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := a.env()
			if err != nil {
				return err
			}
			path := a.configFile
			if path == "" {
				p := a.paths
				if p == nil {
					p = paths.New()
				}
				path = p.ConfigFile()
			}
			if err := commands.InitConfig(env, path, force); err != nil {
				return err
			}
			a.printer(cmd).Success(MsgConfigWritten, path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)

	var defaults bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: MsgConfigShowShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defaults {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultContent())
				return err
			}
			env, err := a.env()
			if err != nil {
				return err
			}
			data, err := config.Marshal(env.Config)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	showCmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		GroupID: "misc",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), MsgVersionTemplate, version.Version, version.Commit, version.Date)
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		GroupID:               "misc",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
