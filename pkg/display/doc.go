// Package display renders settings, packs, mods and backups for the
// terminal.
//
// Tables and trees are drawn with pterm, colors come from the lipgloss
// styles in styles.yaml. Output falls back to plain text when stdout is
// not a terminal or NO_COLOR is set.
package display
