package entity

// TrackerEmojis is the closed set of markers participants can claim
var TrackerEmojis = []string{
	"🍎", "🍊", "🍋", "🍉", "🍇", "🍓", "🍒", "🍑", "🍍", "🥝",
	"🥑", "🥕", "🌽", "🍄", "🌵", "🌻", "🌸", "🌈", "⭐", "🌙",
	"🔥", "💧", "⚡", "❄️", "🍀", "🐶", "🐱", "🐭", "🐹", "🐰",
	"🦊", "🐻", "🐼", "🐨", "🐯", "🦁", "🐮", "🐷", "🐸", "🐵",
	"🐔", "🐧", "🐦", "🦉", "🦄", "🐝", "🦋", "🐢", "🐙", "🐬",
	"🐳", "🦈", "🦀", "🐌", "🎈", "🎸", "🎨", "🎲", "🚀", "⚓",
}

var trackerEmojiSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(TrackerEmojis))
	for _, e := range TrackerEmojis {
		set[e] = struct{}{}
	}
	return set
}()

// IsTrackerEmoji reports whether emoji may be used as a participant marker
func IsTrackerEmoji(emoji string) bool {
	_, ok := trackerEmojiSet[emoji]
	return ok
}
