// Package journal records finished and in-progress stories and derives
// reading statistics and achievements from them.
package journal

import "time"

// Record is one story's reading history.
type Record struct {
	StoryID             string
	Title               string
	Theme               string
	Paragraphs          []string
	ChoicesMade         []string
	ImageURLs           []string
	CompletedParagraphs int
	TotalParagraphs     int
	ReadingSeconds      int
	Completed           bool
	StartedAt           time.Time
	CompletedAt         time.Time
}

// Achievement is an unlocked reading milestone.
type Achievement struct {
	ID          string
	Title       string
	Description string
}

// Stats aggregates the journal.
type Stats struct {
	StoriesRead         int
	TotalReadingSeconds int
	// Streak is the run of consecutive calendar days, ending today or
	// yesterday, with at least one completed story.
	Streak       int
	Level        int
	Achievements []Achievement
}

// levelFor maps completed stories to a reader level: one level per three
// finished stories.
func levelFor(storiesRead int) int {
	return storiesRead/3 + 1
}

// achievementsFor returns the milestones unlocked by the given aggregates.
func achievementsFor(storiesRead, streak int) []Achievement {
	var out []Achievement
	if storiesRead >= 1 {
		out = append(out, Achievement{
			ID:          "first_story",
			Title:       "First Story",
			Description: "Read your first story!",
		})
	}
	if storiesRead >= 5 {
		out = append(out, Achievement{
			ID:          "speed_reader",
			Title:       "Speed Reader",
			Description: "Read 5 stories",
		})
	}
	if streak >= 5 {
		out = append(out, Achievement{
			ID:          "story_lover",
			Title:       "Story Lover",
			Description: "Read for 5 days in a row",
		})
	}
	return out
}

// streakFor computes the consecutive-day streak from the set of days (in
// local time, truncated to midnight) on which stories were completed. The
// streak counts back from today, tolerating no story yet today.
func streakFor(days map[time.Time]bool, now time.Time) int {
	day := now.Truncate(24 * time.Hour)
	if !days[day] {
		day = day.AddDate(0, 0, -1)
	}

	streak := 0
	for days[day] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
