package surface

// DragCommitThreshold is the default displacement, in CSS pixels, a drag or
// pin drag must reach on either axis before release commits it. Anything
// shorter is treated as a click.
const DragCommitThreshold = 3.0

// TreeDepthLimit caps how deep request-snapshot walks the document.
const TreeDepthLimit = 12

// DefaultStableClassExclude lists glob patterns for class names and ids that
// are generated by tooling and therefore unsafe to put in a selector.
var DefaultStableClassExclude = []string{
	"css-*",
	"sc-*",
	"jsx-*",
	"svelte-*",
	"ng-*",
	"_*",
	"*--*",
	"is-*",
	"has-*",
	"*[0-9][0-9][0-9][0-9]*",
}

// Config tunes the editor agent.
type Config struct {
	DragThreshold      float64
	StableClassExclude []string
	MaxTextExcerpt     int
	MaxClassesPerLevel int
	TreeDepth          int
	Language           string
}

// DefaultConfig returns the editor defaults.
func DefaultConfig() Config {
	return Config{
		DragThreshold:      DragCommitThreshold,
		StableClassExclude: append([]string(nil), DefaultStableClassExclude...),
		MaxTextExcerpt:     80,
		MaxClassesPerLevel: 2,
		TreeDepth:          TreeDepthLimit,
		Language:           "en",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DragThreshold <= 0 {
		c.DragThreshold = d.DragThreshold
	}
	if c.StableClassExclude == nil {
		c.StableClassExclude = d.StableClassExclude
	}
	if c.MaxTextExcerpt <= 0 {
		c.MaxTextExcerpt = d.MaxTextExcerpt
	}
	if c.MaxClassesPerLevel <= 0 {
		c.MaxClassesPerLevel = d.MaxClassesPerLevel
	}
	if c.TreeDepth <= 0 {
		c.TreeDepth = d.TreeDepth
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	return c
}
