package engine

import (
	"github.com/talgya/willow-creek/internal/agents"
	"github.com/talgya/willow-creek/internal/social"
	"github.com/talgya/willow-creek/internal/world"
)

// ActionSpec describes an action a location offers.
type ActionSpec struct {
	Name       string
	Category   agents.Category
	BaseWeight float64

	// Interaction names the relationship effect on a partner. Specs with an
	// interaction are offered once per agent sharing the actor's location.
	Interaction string
	MinStatus   social.Status
	MaxStatus   social.Status // zero means no upper bound

	Restores []agents.NeedKind
	Drains   map[agents.NeedKind]float64 // points per hour

	// Memory is the importance of the memory the action leaves; zero leaves none.
	Memory float32
}

// Partnered reports whether the action needs a second agent.
func (s *ActionSpec) Partnered() bool {
	return s.Interaction != ""
}

// Catalog lists the actions each kind of location offers.
type Catalog map[world.Kind][]ActionSpec

var (
	talk     = ActionSpec{Name: "chat", Category: agents.CategorySocial, BaseWeight: 1, Interaction: "talk", Restores: []agents.NeedKind{agents.NeedSocial}}
	deepTalk = ActionSpec{Name: "heart_to_heart", Category: agents.CategorySocial, BaseWeight: 0.6, Interaction: "deep_talk", MinStatus: social.Friend, Restores: []agents.NeedKind{agents.NeedSocial}, Memory: 0.3}
	flirt    = ActionSpec{Name: "flirt", Category: agents.CategoryRomance, BaseWeight: 0.5, Interaction: "flirt", MinStatus: social.Acquaintance, Restores: []agents.NeedKind{agents.NeedLibido}, Memory: 0.3}
	date     = ActionSpec{Name: "go_on_date", Category: agents.CategoryRomance, BaseWeight: 0.6, Interaction: "date", MinStatus: social.RomanticInterest, Restores: []agents.NeedKind{agents.NeedSocial, agents.NeedFun}, Memory: 0.6}
	kiss     = ActionSpec{Name: "kiss", Category: agents.CategoryRomance, BaseWeight: 0.5, Interaction: "kiss", MinStatus: social.Dating, Restores: []agents.NeedKind{agents.NeedLibido}, Memory: 0.6}
	propose  = ActionSpec{Name: "propose", Category: agents.CategoryRomance, BaseWeight: 0.1, Interaction: "propose", MinStatus: social.Committed, MaxStatus: social.Committed, Memory: 0.9}
	gift     = ActionSpec{Name: "give_gift", Category: agents.CategoryAltruistic, BaseWeight: 0.3, Interaction: "gift", MinStatus: social.Acquaintance, Memory: 0.4}
	help     = ActionSpec{Name: "lend_a_hand", Category: agents.CategoryAltruistic, BaseWeight: 0.4, Interaction: "help", Memory: 0.4}
	argue    = ActionSpec{Name: "argue", Category: agents.CategoryConflict, BaseWeight: 0.15, Interaction: "conflict", Memory: 0.5}
	bathroom = ActionSpec{Name: "use_bathroom", Category: agents.CategoryBathroom, BaseWeight: 0.5, Restores: []agents.NeedKind{agents.NeedBladder}}
)

// DefaultCatalog returns the built-in actions for every location kind.
func DefaultCatalog() Catalog {
	return Catalog{
		world.KindHome: {
			{Name: "sleep", Category: agents.CategorySleep, BaseWeight: 1, Restores: []agents.NeedKind{agents.NeedEnergy}},
			{Name: "nap", Category: agents.CategoryRest, BaseWeight: 0.5, Restores: []agents.NeedKind{agents.NeedEnergy}},
			{Name: "cook_meal", Category: agents.CategoryEat, BaseWeight: 1, Restores: []agents.NeedKind{agents.NeedHunger}},
			{Name: "shower", Category: agents.CategoryHygiene, BaseWeight: 0.8, Restores: []agents.NeedKind{agents.NeedHygiene}},
			{Name: "watch_tv", Category: agents.CategoryFun, BaseWeight: 0.8, Restores: []agents.NeedKind{agents.NeedFun}},
			{Name: "read_alone", Category: agents.CategorySolitary, BaseWeight: 0.6, Restores: []agents.NeedKind{agents.NeedFun}},
			bathroom, talk, deepTalk, kiss, propose, argue,
		},
		world.KindCafe: {
			{Name: "eat_out", Category: agents.CategoryEat, BaseWeight: 1, Restores: []agents.NeedKind{agents.NeedHunger}, Drains: map[agents.NeedKind]float64{agents.NeedBladder: 2}},
			{Name: "people_watch", Category: agents.CategorySolitary, BaseWeight: 0.4, Restores: []agents.NeedKind{agents.NeedFun}},
			bathroom, talk, deepTalk, flirt, date, gift,
		},
		world.KindPark: {
			{Name: "go_for_a_run", Category: agents.CategoryFun, BaseWeight: 0.7, Restores: []agents.NeedKind{agents.NeedFun}, Drains: map[agents.NeedKind]float64{agents.NeedEnergy: 3, agents.NeedHygiene: 4}},
			{Name: "walk", Category: agents.CategorySolitary, BaseWeight: 0.6, Restores: []agents.NeedKind{agents.NeedFun}},
			{Name: "sunbathe", Category: agents.CategoryRest, BaseWeight: 0.4, Restores: []agents.NeedKind{agents.NeedEnergy}},
			talk, flirt, date, help, argue,
		},
		world.KindOffice: {
			{Name: "work", Category: agents.CategoryWork, BaseWeight: 1.2, Drains: map[agents.NeedKind]float64{agents.NeedEnergy: 1.5, agents.NeedFun: 2}},
			bathroom, talk, help, argue,
		},
		world.KindSchool: {
			{Name: "attend_class", Category: agents.CategoryStudy, BaseWeight: 1, Drains: map[agents.NeedKind]float64{agents.NeedFun: 2}},
			bathroom, talk, flirt, argue,
		},
		world.KindGym: {
			{Name: "work_out", Category: agents.CategoryFun, BaseWeight: 0.7, Restores: []agents.NeedKind{agents.NeedFun}, Drains: map[agents.NeedKind]float64{agents.NeedEnergy: 4, agents.NeedHygiene: 6}},
			{Name: "gym_shower", Category: agents.CategoryHygiene, BaseWeight: 0.5, Restores: []agents.NeedKind{agents.NeedHygiene}},
			talk, flirt,
		},
		world.KindNightclub: {
			{Name: "dance", Category: agents.CategoryFun, BaseWeight: 1, Restores: []agents.NeedKind{agents.NeedFun, agents.NeedSocial}, Drains: map[agents.NeedKind]float64{agents.NeedEnergy: 3}},
			{Name: "drink_too_much", Category: agents.CategoryRisky, BaseWeight: 0.4, Restores: []agents.NeedKind{agents.NeedFun}, Drains: map[agents.NeedKind]float64{agents.NeedBladder: 10, agents.NeedEnergy: 2}},
			bathroom, talk, flirt, kiss, argue,
		},
		world.KindLibrary: {
			{Name: "study", Category: agents.CategoryStudy, BaseWeight: 0.8},
			{Name: "browse_books", Category: agents.CategorySolitary, BaseWeight: 0.6, Restores: []agents.NeedKind{agents.NeedFun}},
			deepTalk,
		},
		world.KindStudio: {
			{Name: "paint", Category: agents.CategoryCreative, BaseWeight: 0.8, Restores: []agents.NeedKind{agents.NeedFun}},
			{Name: "play_music", Category: agents.CategoryCreative, BaseWeight: 0.7, Restores: []agents.NeedKind{agents.NeedFun}},
			talk, help,
		},
	}
}

// lookup finds the spec behind a chosen action.
func (c Catalog) lookup(kind world.Kind, name string) (ActionSpec, bool) {
	for _, s := range c[kind] {
		if s.Name == name {
			return s, true
		}
	}
	return ActionSpec{}, false
}

// byInteraction finds the first spec carrying the given interaction.
func (c Catalog) byInteraction(kind string) (ActionSpec, bool) {
	for k := world.KindHome; k <= world.KindStudio; k++ {
		for _, s := range c[k] {
			if s.Interaction == kind {
				return s, true
			}
		}
	}
	return ActionSpec{}, false
}
