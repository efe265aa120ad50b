package stubserver

import "fmt"

// openingParagraphs is the canned three-paragraph opening for any theme.
func openingParagraphs(theme string) []string {
	return []string{
		fmt.Sprintf("Once upon a time, in a land woven from dreams about %s, a small hero woke up to a morning full of promise.", theme),
		"The sun painted the hills gold, and somewhere beyond the garden gate something wonderful was waiting to be found.",
		"With a deep breath and a brave little smile, our hero stepped out onto the winding path.",
	}
}

// continuationParagraph is the canned paragraph for one continuation round.
func continuationParagraph(theme, choice string, iteration int) string {
	if iteration >= maxRounds {
		return fmt.Sprintf("And so, after choosing to %s, the adventure about %s came to a gentle, happy end. Our hero curled up under the stars, already dreaming of the next one.", lowerFirst(choice), theme)
	}
	return fmt.Sprintf("Choosing to %s, our hero discovered something new about %s, and the path ahead sparkled with possibility.", lowerFirst(choice), theme)
}

// choicesForRound returns three deterministic choices, varied per round so
// repeated play does not feel identical.
func choicesForRound(iteration int) []string {
	sets := [][]string{
		{"Follow the sparkling stream", "Climb the old oak tree", "Knock on the tiny blue door"},
		{"Ask the friendly fox for help", "Peek inside the glowing cave", "Build a little boat of leaves"},
		{"Sing a song to the stars", "Share lunch with a new friend", "Draw a map of the meadow"},
	}
	return sets[(iteration-1)%len(sets)]
}

func lowerFirst(s string) string {
	if s == "" {
		return "continue onward"
	}
	r := []rune(s)
	if r[0] >= 'A' && r[0] <= 'Z' {
		r[0] = r[0] - 'A' + 'a'
	}
	return string(r)
}

// placeholderPNG is a 1x1 transparent PNG.
var placeholderPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
