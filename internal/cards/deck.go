// internal/cards/deck.go
package cards

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxDeckSize bounds the number of physical cards one deck list may expand to.
const MaxDeckSize = 1000

// ErrDeckTooLarge is returned when a deck list expands past MaxDeckSize.
var ErrDeckTooLarge = errors.New("deck list is too large")

// DeckEntry is one "<count> <Name>[ - <Subtitle>]" line of a deck list.
type DeckEntry struct {
	Count    int
	Name     string
	Subtitle string
}

// FullName is the name as printed on the card, with the subtitle if any.
func (e DeckEntry) FullName() string {
	if e.Subtitle == "" {
		return e.Name
	}
	return e.Name + " - " + e.Subtitle
}

// cacheKey identifies the entry independently of count and letter case.
func (e DeckEntry) cacheKey() string {
	if e.Subtitle == "" {
		return strings.ToLower(e.Name + "|NO_SUBTITLE")
	}
	return strings.ToLower(e.Name + "|" + e.Subtitle)
}

// ParseDeckList reads a Dreamborn style deck list. Blank lines, lines without a
// leading count and non-positive counts are skipped.
func ParseDeckList(text string) []DeckEntry {
	var entries []DeckEntry
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		countStr, rest, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		count, err := strconv.Atoi(countStr)
		if err != nil || count <= 0 {
			continue
		}
		rest = strings.TrimSpace(rest)
		if rest == "" {
			continue
		}

		entry := DeckEntry{Count: count, Name: rest}
		if name, subtitle, found := strings.Cut(rest, " - "); found {
			entry.Name = strings.TrimSpace(name)
			entry.Subtitle = strings.TrimSpace(subtitle)
		}
		entries = append(entries, entry)
	}
	return entries
}

// DeckSize sums the counts of entries, failing once the total passes MaxDeckSize.
func DeckSize(entries []DeckEntry) (int, error) {
	n := 0
	for _, e := range entries {
		if e.Count > MaxDeckSize-n {
			return 0, fmt.Errorf("%w: more than %d cards", ErrDeckTooLarge, MaxDeckSize)
		}
		n += e.Count
	}
	return n, nil
}

// SampleDeck is a legal 60 card list used for test tables.
const SampleDeck = `2 Rapunzel - Gifted with Healing
3 Stitch - Carefree Surfer
2 Be Our Guest
3 Lantern
2 Maui - Hero to All
1 Te Kā - The Burning One
2 Fan the Flames
2 Rapunzel - Gifted Artist
2 Snow White - Lost in the Forest
2 Snow White - Well Wisher
4 Felicia - Always Hungry
4 Mother Gothel - Withered and Wicked
2 Teeth and Ambitions
2 Dinner Bell
4 Pluto - Determined Defender
4 Pluto - Friendly Pooch
2 Pongo - Determined Father
4 Cleansing Rainwater
2 Heart of Atlantis
3 Maui - Whale
2 Stitch - Little Rocket
2 Divebomb
2 On Your Feet! Now!
2 Maui's Fish Hook`
