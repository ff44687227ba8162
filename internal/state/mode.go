package state

// Mode identifies which companion mode is active. Exactly one mode is
// active at a time; anything unrecognized routes to chat.
type Mode string

const (
	ModeChat  Mode = "chat"
	ModeImage Mode = "image"
	ModeAstro Mode = "astro"
	ModeDiary Mode = "diary"
	ModeLive  Mode = "live"
)

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeChat, ModeImage, ModeAstro, ModeDiary, ModeLive}
}

// ParseMode resolves a stored or user-supplied mode name. Unknown values
// fall back to chat rather than erroring.
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeChat, ModeImage, ModeAstro, ModeDiary, ModeLive:
		return Mode(s)
	default:
		return ModeChat
	}
}

// Title returns the human-facing name for a mode.
func (m Mode) Title() string {
	switch m {
	case ModeImage:
		return "Image Studio"
	case ModeAstro:
		return "Astro Guide"
	case ModeDiary:
		return "AI Diary"
	case ModeLive:
		return "Live Voice"
	default:
		return "Chat"
	}
}
