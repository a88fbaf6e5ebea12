package nmm

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort           = "A Noita mod and settings manager"
	MsgSettingsShort       = "Inspect mod settings"
	MsgSettingsListShort   = "List settings"
	MsgSettingsGetShort    = "Show one setting"
	MsgSettingsTreeShort   = "Show settings grouped by key"
	MsgSettingsDumpShort   = "Dump every setting"
	MsgSettingsUnpackLong  = "Write the decompressed payload of mod_settings.bin to a file, for inspection with a hex editor."
	MsgSettingsUnpack      = "Write the raw settings payload to a file"
	MsgSettingsExportShort = "Save the current settings to an archive"
	MsgSettingsExportLong  = "Write the current settings to an archive laid out like mod_settings.bin and compressed with settings.codec. The game's own file is always fastlz."
	MsgSettingsImportShort = "Merge an archive into the game's settings"
	MsgPackShort           = "Manage mod packs"
	MsgPackListShort       = "List packs"
	MsgPackShowShort       = "Show a pack"
	MsgPackCreateShort     = "Create a pack from the current game state"
	MsgPackApplyShort      = "Apply a pack to the game"
	MsgPackDeleteShort     = "Delete a pack"
	MsgModsShort           = "Inspect installed mods"
	MsgModsListShort       = "List mods in load order"
	MsgBackupShort         = "Manage backups of game files"
	MsgBackupListShort     = "List backups"
	MsgBackupRestoreShort  = "Restore a backup"
	MsgConfigShort         = "Manage nmm configuration"
	MsgConfigInitShort     = "Write the current configuration to the config file"
	MsgConfigShowShort     = "Show the effective configuration"
	MsgVersionShort        = "Print version information"
	MsgCompletionShort     = "Generate shell completion script"

	// Status messages
	MsgPackCreated      = "Created pack %s in %s (%d mods, %d settings)"
	MsgPackPreview      = "Pack %s would hold %d mods and %d settings"
	MsgPackDeleted      = "Deleted %s"
	MsgPackUnreadable   = "Could not read %s: %v"
	MsgBackupsTaken     = "Backed up %s as %s"
	MsgBackupRestored   = "Restored %s from backup %s"
	MsgUnpacked         = "Wrote %d bytes to %s"
	MsgSettingsExported = "Exported %d settings to %s (%s)"
	MsgSettingsImported = "Imported %d settings, %d in total"
	MsgConfigWritten    = "Wrote configuration to %s"
	MsgDryRunNotice     = "Dry run, no files were changed"
	MsgVersionTemplate  = "nmm version %s\n  commit: %s\n  built:  %s\n"

	// Error messages
	MsgErrNoCommand = "no command specified"

	// Flag descriptions
	MsgFlagVerbose      = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig       = "Config file (default $XDG_CONFIG_HOME/nmm/config.toml)"
	MsgFlagSaveDir      = "Noita save directory holding mod_config.xml"
	MsgFlagColor        = "Color output: auto, always or never"
	MsgFlagNoColor      = "Disable colored output (same as --color never)"
	MsgFlagDryRun       = "Preview changes without writing them"
	MsgFlagForce        = "Overwrite an existing file"
	MsgFlagPrefix       = "Only list keys starting with this prefix"
	MsgFlagExportPrefix = "Only export keys starting with this prefix"
	MsgFlagDepth        = "Collapse groups below this depth (0 shows all)"
	MsgFlagValues       = "Show current values in the tree"
	MsgFlagFormat       = "Output format: yaml or text"
	MsgFlagInclude      = "Setting key or group to export (repeatable)"
	MsgFlagAll          = "Export every setting"
	MsgFlagMods         = "Comma separated mod ids instead of the enabled mods"
	MsgFlagDefaults     = "Show the built-in defaults instead"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/pack-create-long.txt
	msgPackCreateLongRaw string
	MsgPackCreateLong    = strings.TrimSpace(msgPackCreateLongRaw)

	//go:embed msgs/pack-create-example.txt
	msgPackCreateExampleRaw string
	MsgPackCreateExample    = strings.TrimRight(msgPackCreateExampleRaw, "\n")

	//go:embed msgs/pack-apply-long.txt
	msgPackApplyLongRaw string
	MsgPackApplyLong    = strings.TrimSpace(msgPackApplyLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)
)
