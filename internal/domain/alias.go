package domain

// Canonical slot names that raw infobox keys are mapped onto.
const (
	SlotName           = "name"
	SlotGender         = "gender"
	SlotBirthdate      = "birthdate"
	SlotAge            = "age"
	SlotMeasurements   = "measurements"
	SlotHeight         = "height"
	SlotWeight         = "weight"
	SlotHairColor      = "hair_color"
	SlotEyeColor       = "eye_color"
	SlotEthnicity      = "ethnicity"
	SlotCountry        = "country"
	SlotAliases        = "aliases"
	SlotCareerStart    = "career_start"
	SlotCareerEnd      = "career_end"
	SlotPiercings      = "piercings"
	SlotTattoos        = "tattoos"
	SlotCupSize        = "cup_size"
	SlotFakeBoobs      = "fake_boobs"
	SlotDisambiguation = "disambiguation"
)

// AliasTable maps each canonical slot to its candidate raw keys in priority
// order; the first alias present in an infobox wins. Static for a run.
type AliasTable struct {
	slots   []string
	aliases map[string][]string
}

// AliasTableOptions selects the config-dependent alias extensions.
type AliasTableOptions struct {
	MapRaceToEthnicity          bool
	MapUniverseToDisambiguation bool
}

// NewAliasTable builds the default alias table, extended per options.
func NewAliasTable(opts AliasTableOptions) *AliasTable {
	t := &AliasTable{aliases: make(map[string][]string)}

	t.add(SlotName, "full name", "full_name", "name", "title", "character_name")
	t.add(SlotGender, "gender", "sex", "identity")
	t.add(SlotBirthdate, "birthdate", "birth_date", "date of birth", "born", "birthday")
	t.add(SlotAge, "age", "current_age", "current age")
	t.add(SlotMeasurements, "measurements", "body_measurements", "stats")
	t.add(SlotHeight, "height", "stature")
	t.add(SlotWeight, "weight", "weight kg", "weight_kg")
	t.add(SlotHairColor, "hair_color", "hair")
	t.add(SlotEyeColor, "eye_color", "eyes")
	t.add(SlotEthnicity, "ethnicity", "species", "race_species", "creature_type")
	t.add(SlotCountry, "nationality", "nation", "country", "origin")
	t.add(SlotAliases, "aliases", "alias", "also_known_as", "aka")
	t.add(SlotCareerStart, "career_start", "debut", "first_appearance")
	t.add(SlotCareerEnd, "career_end", "retired", "last_appearance")
	t.add(SlotPiercings, "piercings", "piercing")
	t.add(SlotTattoos, "tattoos", "tattoo")
	t.add(SlotCupSize, "cup_size", "cup", "bra_size")
	t.add(SlotFakeBoobs, "fake_boobs", "breast_implants", "implants")

	if opts.MapRaceToEthnicity {
		t.extend(SlotEthnicity, "race", "species_type", "character_race")
	}
	if opts.MapUniverseToDisambiguation {
		t.add(SlotDisambiguation, "universe", "continuity")
	}

	return t
}

func (t *AliasTable) add(slot string, aliases ...string) {
	if _, exists := t.aliases[slot]; !exists {
		t.slots = append(t.slots, slot)
	}
	t.aliases[slot] = append(t.aliases[slot], aliases...)
}

func (t *AliasTable) extend(slot string, aliases ...string) {
	t.add(slot, aliases...)
}

// Slots returns canonical slot names in declaration order.
func (t *AliasTable) Slots() []string {
	return t.slots
}

// Aliases returns the priority-ordered candidate keys for a slot.
func (t *AliasTable) Aliases(slot string) []string {
	return t.aliases[slot]
}
