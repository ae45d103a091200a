package pipeline

import "strings"

// CharacterKind is the coarse category of an animated character sheet.
type CharacterKind string

const (
	KindPlayer    CharacterKind = "player"
	KindEnemy     CharacterKind = "enemy"
	KindNPC       CharacterKind = "npc"
	KindAnimal    CharacterKind = "animal"
	KindCharacter CharacterKind = "character"
)

var animationKeywords = []string{
	"animated", "animation", "sprite sheet", "spritesheet",
	"walk", "run", "attack", "idle", "jump", "frames", "frame",
}

var characterKeywords = []string{
	"character", "enemy", "enemies", "player", "hero", "npc",
	"monster", "creature", "mob", "boss", "villain",
	"animal", "bird", "fish", "dog", "cat", "dragon", "beast",
	"warrior", "knight", "mage", "wizard", "archer", "rogue",
	"zombie", "skeleton", "alien", "robot", "human", "people",
	"slime", "ghost", "demon", "orc", "goblin", "troll",
	"adventurer", "soldier", "fighter", "assassin",
}

// Checked in order; the first matching kind wins.
var kindKeywords = []struct {
	kind     CharacterKind
	keywords []string
}{
	{KindPlayer, []string{"player", "hero", "adventurer", "protagonist"}},
	{KindEnemy, []string{"enemy", "enemies", "monster", "mob", "boss", "villain"}},
	{KindNPC, []string{"npc", "civilian", "merchant", "villager"}},
	{KindAnimal, []string{"animal", "bird", "fish", "creature", "beast"}},
}

// IsAnimatedCharacter reports whether the sheet's text describes an animated
// character (player, enemy, NPC or animal). Only these sheets carry
// per-row facing directions.
func IsAnimatedCharacter(s Sheet) bool {
	text := sheetText(s, true)
	return containsAny(text, animationKeywords) && containsAny(text, characterKeywords)
}

// KindOf categorizes a character sheet from its tags and title.
func KindOf(s Sheet) CharacterKind {
	text := sheetText(s, false)
	for _, k := range kindKeywords {
		if containsAny(text, k.keywords) {
			return k.kind
		}
	}
	return KindCharacter
}

func sheetText(s Sheet, withDescription bool) string {
	parts := append([]string{}, s.Tags...)
	parts = append(parts, s.Title)
	if withDescription {
		parts = append(parts, s.Description)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
