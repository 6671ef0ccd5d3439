// Package blocks holds the fixed block vocabulary of the playground: the
// descriptors a learner drags out of the palette and the catalogs that
// group them.
package blocks

import (
	"fmt"
	"strings"
)

// Category groups blocks in the palette. It has no effect on execution.
type Category string

const (
	CategoryMotion  Category = "motion"
	CategoryLooks   Category = "looks"
	CategorySound   Category = "sound"
	CategoryEvents  Category = "events"
	CategoryControl Category = "control"
	CategorySensing Category = "sensing"
)

// categoryOrder is the palette order.
var categoryOrder = []Category{
	CategoryMotion,
	CategoryLooks,
	CategorySound,
	CategoryEvents,
	CategoryControl,
	CategorySensing,
}

var categoryLabels = map[Category][2]string{
	CategoryMotion:  {"Motion", "حركة"},
	CategoryLooks:   {"Looks", "مظهر"},
	CategorySound:   {"Sound", "صوت"},
	CategoryEvents:  {"Events", "أحداث"},
	CategoryControl: {"Control", "تحكم"},
	CategorySensing: {"Sensing", "استشعار"},
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label returns the palette heading for the category.
func (c Category) Label(locale Locale) string {
	l, ok := categoryLabels[c]
	if !ok {
		return string(c)
	}
	if locale == Arabic {
		return l[1]
	}
	return l[0]
}

// Locale selects which label variant is rendered.
type Locale string

const (
	English Locale = "en"
	Arabic  Locale = "ar"
)

// ParseLocale maps a language tag to a Locale. Anything that is not Arabic
// renders in English.
func ParseLocale(tag string) Locale {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(tag)), "ar") {
		return Arabic
	}
	return English
}

// Descriptor is a catalog entry. The JSON form is the drag payload.
type Descriptor struct {
	ID       string   `json:"id"`
	Category Category `json:"type"`
	Label    string   `json:"label"`
	LabelAr  string   `json:"labelAr"`
	Color    string   `json:"color,omitempty"`
	Icon     string   `json:"icon,omitempty"`
}

// LabelFor returns the label in the given locale, falling back to English
// when no Arabic label is set.
func (d Descriptor) LabelFor(locale Locale) string {
	if locale == Arabic && d.LabelAr != "" {
		return d.LabelAr
	}
	return d.Label
}

// Instance is a block placed on a composition surface.
type Instance struct {
	Descriptor
	InstanceID string `json:"instanceId"`
}

// Group is one palette section.
type Group struct {
	Category Category     `json:"category"`
	Blocks   []Descriptor `json:"blocks"`
}

// Catalog is an immutable registry of descriptors keyed by id.
type Catalog struct {
	name   string
	blocks []Descriptor
	byID   map[string]int
}

// NewCatalog builds a catalog. Ids must be non-empty and unique.
func NewCatalog(name string, descriptors ...Descriptor) (*Catalog, error) {
	c := &Catalog{
		name:   name,
		blocks: make([]Descriptor, 0, len(descriptors)),
		byID:   make(map[string]int, len(descriptors)),
	}
	for _, d := range descriptors {
		if d.ID == "" {
			return nil, fmt.Errorf("catalog %s: block with empty id", name)
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate block id %s", name, d.ID)
		}
		if !d.Category.Valid() {
			return nil, fmt.Errorf("catalog %s: block %s has unknown category %q", name, d.ID, d.Category)
		}
		c.byID[d.ID] = len(c.blocks)
		c.blocks = append(c.blocks, d)
	}
	return c, nil
}

func mustCatalog(name string, descriptors ...Descriptor) *Catalog {
	c, err := NewCatalog(name, descriptors...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Len returns the number of blocks.
func (c *Catalog) Len() int { return len(c.blocks) }

// Lookup returns the descriptor for id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Descriptor{}, false
	}
	return c.blocks[i], true
}

// All returns the descriptors in declaration order.
func (c *Catalog) All() []Descriptor {
	return append([]Descriptor(nil), c.blocks...)
}

// Groups returns the palette sections in category order. Empty categories
// are omitted.
func (c *Catalog) Groups() []Group {
	var groups []Group
	for _, cat := range categoryOrder {
		var bs []Descriptor
		for _, d := range c.blocks {
			if d.Category == cat {
				bs = append(bs, d)
			}
		}
		if len(bs) > 0 {
			groups = append(groups, Group{Category: cat, Blocks: bs})
		}
	}
	return groups
}

// Subset returns a new catalog restricted to ids, in the order given.
func (c *Catalog) Subset(name string, ids ...string) (*Catalog, error) {
	ds := make([]Descriptor, 0, len(ids))
	for _, id := range ids {
		d, ok := c.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("catalog %s: unknown block id %s", c.name, id)
		}
		ds = append(ds, d)
	}
	return NewCatalog(name, ds...)
}

var playground = mustCatalog("playground",
	Descriptor{ID: "move_10", Category: CategoryMotion, Label: "Move 10 steps", LabelAr: "تحرك 10 خطوات", Color: "bg-blue-500", Icon: "➡️"},
	Descriptor{ID: "turn_right", Category: CategoryMotion, Label: "Turn ↻ 15°", LabelAr: "استدر ↻ 15°", Color: "bg-blue-500", Icon: "↩️"},
	Descriptor{ID: "turn_left", Category: CategoryMotion, Label: "Turn ↺ 15°", LabelAr: "استدر ↺ 15°", Color: "bg-blue-500", Icon: "↪️"},
	Descriptor{ID: "goto_random", Category: CategoryMotion, Label: "Go to random position", LabelAr: "اذهب لموقع عشوائي", Color: "bg-blue-500", Icon: "🎲"},

	Descriptor{ID: "say_hello", Category: CategoryLooks, Label: `Say "Hello!"`, LabelAr: `قل "مرحبا!"`, Color: "bg-purple-500", Icon: "💬"},
	Descriptor{ID: "say_hmm", Category: CategoryLooks, Label: `Say "Hmm..."`, LabelAr: `قل "همم..."`, Color: "bg-purple-500", Icon: "🤔"},
	Descriptor{ID: "change_size", Category: CategoryLooks, Label: "Change size by 10", LabelAr: "غير الحجم بـ 10", Color: "bg-purple-500", Icon: "📏"},
	Descriptor{ID: "show", Category: CategoryLooks, Label: "Show", LabelAr: "أظهر", Color: "bg-purple-500", Icon: "👀"},
	Descriptor{ID: "hide", Category: CategoryLooks, Label: "Hide", LabelAr: "أخف", Color: "bg-purple-500", Icon: "🙈"},

	Descriptor{ID: "play_meow", Category: CategorySound, Label: "Play Meow", LabelAr: "شغل مياو", Color: "bg-pink-500", Icon: "🐱"},
	Descriptor{ID: "play_pop", Category: CategorySound, Label: "Play Pop", LabelAr: "شغل فرقعة", Color: "bg-pink-500", Icon: "💥"},

	Descriptor{ID: "when_clicked", Category: CategoryEvents, Label: "When clicked", LabelAr: "عند النقر", Color: "bg-yellow-500", Icon: "🖱️"},
	Descriptor{ID: "when_space", Category: CategoryEvents, Label: "When space pressed", LabelAr: "عند ضغط المسافة", Color: "bg-yellow-500", Icon: "⌨️"},

	Descriptor{ID: "wait_1", Category: CategoryControl, Label: "Wait 1 second", LabelAr: "انتظر 1 ثانية", Color: "bg-orange-500", Icon: "⏱️"},
	Descriptor{ID: "repeat_10", Category: CategoryControl, Label: "Repeat 10 times", LabelAr: "كرر 10 مرات", Color: "bg-orange-500", Icon: "🔄"},
	Descriptor{ID: "forever", Category: CategoryControl, Label: "Forever", LabelAr: "للأبد", Color: "bg-orange-500", Icon: "♾️"},
)

var puzzles = mustCatalog("puzzles",
	Descriptor{ID: "move", Category: CategoryMotion, Label: "Move 10 steps", LabelAr: "تحرك 10 خطوات", Color: "bg-blue-500", Icon: "➡️"},
	Descriptor{ID: "turn", Category: CategoryMotion, Label: "Turn 15°", LabelAr: "استدر 15 درجة", Color: "bg-blue-500", Icon: "↩️"},
	Descriptor{ID: "say", Category: CategoryLooks, Label: "Say Hello!", LabelAr: "قل مرحبا!", Color: "bg-purple-500", Icon: "💬"},
	Descriptor{ID: "wait", Category: CategoryControl, Label: "Wait 1 sec", LabelAr: "انتظر 1 ثانية", Color: "bg-yellow-500", Icon: "⏱️"},
	Descriptor{ID: "play", Category: CategorySound, Label: "Play sound", LabelAr: "شغل صوت", Color: "bg-pink-500", Icon: "🔊"},
	Descriptor{ID: "repeat", Category: CategoryControl, Label: "Repeat 3 times", LabelAr: "كرر 3 مرات", Color: "bg-yellow-500", Icon: "🔄"},
)

// Playground returns the free-playground catalog.
func Playground() *Catalog { return playground }

// Puzzles returns the catalog puzzles draw their blocks from.
func Puzzles() *Catalog { return puzzles }

// ByName returns a built-in catalog by name.
func ByName(name string) (*Catalog, bool) {
	switch name {
	case "", "playground":
		return playground, true
	case "puzzles", "puzzle":
		return puzzles, true
	}
	return nil, false
}
