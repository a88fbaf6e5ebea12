// Package config loads nmm's configuration.
//
// Values are layered, later layers winning:
//
//  1. defaults embedded in the binary (embedded/defaults.toml)
//  2. the user file, $XDG_CONFIG_HOME/nmm/config.toml or --config
//  3. environment variables, NMM_<SECTION>_<KEY> (NMM_NOITA_SAVE_DIR)
//  4. command line overrides
//
// Empty directories are filled in from pkg/paths after loading, and the
// save directory is detected from the usual Steam locations when unset.
package config
