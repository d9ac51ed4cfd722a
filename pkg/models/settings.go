package models

// Settings is the feature-flag snapshot pulled once per page load.
// Values are booleans except dateFormat, which is a layout name string.
type Settings map[string]any

// Primary feature toggles.
var primarySettings = []string{
	"autoSave",
	"markBookmarks",
	"organizer",
	"entireWork",
	"groupDescriptions",
	"styleDescriptions",
	"dateFormat",
}

// Secondary feature toggles, all enabled by default.
var secondarySettings = []string{
	"adblock",
	"copy",
	"shortcuts",
	"bookmarks",
	"wordCounter",
	"profileSorts",
	"bigCovers",
	"separateFics",
}

var primaryDefaults = Settings{
	"markBookmarks":     true,
	"entireWork":        true,
	"groupDescriptions": true,
	"styleDescriptions": true,
	"organizer":         true,
	"dateFormat":        "MM/DD/YY",
}

// LegacySettingKeys maps setting names from old releases to their
// current names. Prior explicit values always win over defaults.
var LegacySettingKeys = map[string]string{
	"markFicWithBookmark":  "markBookmarks",
	"betterInfo":           "groupDescriptions",
	"betterInfoColor":      "styleDescriptions",
	"bookmarkButton":       "bookmarks",
	"chapterWordCounter":   "wordCounter",
	"moreOptionsInProfile": "profileSorts",
	"allowCopy":            "copy",
	"allFicButton":         "entireWork",
}

// DefaultSettings computes the full default snapshot: primary toggles from
// primaryDefaults (false when unlisted), secondary toggles all true.
func DefaultSettings() Settings {
	out := make(Settings, len(primarySettings)+len(secondarySettings))
	for _, name := range primarySettings {
		if v, ok := primaryDefaults[name]; ok {
			out[name] = v
		} else {
			out[name] = false
		}
	}
	for _, name := range secondarySettings {
		out[name] = true
	}
	return out
}

// KnownSettingKeys lists every current setting name.
func KnownSettingKeys() []string {
	out := make([]string, 0, len(primarySettings)+len(secondarySettings))
	out = append(out, primarySettings...)
	out = append(out, secondarySettings...)
	return out
}

// Bool reads a boolean flag; missing or mistyped values read as false.
func (s Settings) Bool(name string) bool {
	v, ok := s[name].(bool)
	return ok && v
}

// String reads a string setting; missing or mistyped values read as "".
func (s Settings) String(name string) string {
	v, _ := s[name].(string)
	return v
}
