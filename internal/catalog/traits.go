package catalog

// Traits is the allow-list of metadata attributes kept as stat columns, in canonical column order.
var Traits = []string{
	"level",
	"hp",
	"mp",
	"str",
	"vit",
	"agi",
	"int",
	"dex",
	"mnd",
	"attack",
	"defense",
	"magic_attack",
	"atk_spd",
	"physical_cri",
	"physical_cri_multi",
	"magic_cri",
	"magic_cri_multi",
	"cast_spd",
	"def_proficiency",
	"guard",
	"guard_effect",
	"physical_resist",
	"magic_resist",
	"fire_resist",
	"wind_resist",
	"water_resist",
	"earth_resist",
	"holy_resist",
	"dark_resist",
	"critical_resist",
	"sleep_resist",
	"stun_resist",
	"poison_resist",
	"silence_resist",
	"root_resist",
	"snare_resist",
	"item_drop_rate",
	"exp_get_rate",
}

const (
	TraitLevel = "level"

	// MintMarkerTrait and MintTerminalTrait bound the attribute range the watcher inspects.
	MintMarkerTrait   = "hp"
	MintTerminalTrait = "exp_get_rate"

	// LevelPlaceholder is stored for an unset level.
	LevelPlaceholder = "-"
)

var traitSet = func() map[string]bool {
	m := make(map[string]bool, len(Traits))
	for _, t := range Traits {
		m[t] = true
	}
	return m
}()

func IsTrait(name string) bool {
	return traitSet[name]
}
