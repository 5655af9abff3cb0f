package pet

import "math/rand/v2"

var notices = map[string][]string{
	string(FeedNoResource): {
		"There is no can left!",
		"I cannot find any can!",
	},
	string(PetAlreadySatisfied): {
		"Enough Petting!",
		"No more pet please!",
		"No more!",
	},
	string(FeedAlreadyFull): {
		"Enough food!",
		"I am full!",
		"No more please!",
		"I'm bloated!",
		"Please no more food!",
	},
}

// Notice returns a user-facing message for a rejected outcome, picked at
// random from its message list. Accepted outcomes have no notice.
func Notice[O FeedOutcome | PetOutcome](outcome O) string {
	return NoticeWith(outcome, rand.IntN)
}

// NoticeWith is Notice with an explicit index picker.
func NoticeWith[O FeedOutcome | PetOutcome](outcome O, pick func(n int) int) string {
	list := notices[string(outcome)]
	if len(list) == 0 {
		return ""
	}
	return list[pick(len(list))]
}

// Notices returns every message registered for outcome.
func Notices[O FeedOutcome | PetOutcome](outcome O) []string {
	return append([]string(nil), notices[string(outcome)]...)
}
