// Package paths provides centralized path handling for nmm.
//
// nmm owns three XDG locations and reads from the game's save directory:
//
//   - Data: $XDG_DATA_HOME/nmm (packs, backups)
//   - Config: $XDG_CONFIG_HOME/nmm (config.toml)
//   - State: $XDG_STATE_HOME/nmm (nmm.log)
//   - Noita save: the save00 directory holding mod_config.xml and
//     mod_settings.bin
//
// # Environment Variables
//
//   - NMM_DATA_DIR: Override the data directory
//   - NMM_CONFIG_DIR: Override the config directory
//   - NMM_STATE_DIR: Override the state directory
//
// # Usage
//
//	p := paths.New()
//	packs := p.PacksDir()        // ~/.local/share/nmm/packs
//	cfg := p.ConfigFile()        // ~/.config/nmm/config.toml
//
//	save, err := paths.FindNoitaSaveDir(fs)
package paths
