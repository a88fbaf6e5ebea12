package commands

import "github.com/arthur-debert/nmm/pkg/modlist"

// ListMods returns the installed mods in load order.
func ListMods(env Env) ([]modlist.Mod, error) {
	l, err := env.LoadMods()
	if err != nil {
		return nil, err
	}
	return l.Mods, nil
}
