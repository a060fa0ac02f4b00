package enrich

// Entry maps a lowercased badge/emote identifier to its ISO-8601 "added on" timestamp.
// Tables are ordered slices, not maps: substring matching is first-hit-wins, so the
// iteration order has to be defined and stable.
type Entry struct {
	Key       string
	Timestamp string
}

// badgeTimestamps holds the curated global-badge creation dates sourced from the
// Stream Database catalog (2025-07 revision). Only verified dates are listed;
// estimated dates are deliberately excluded so unknown stays unknown.
var badgeTimestamps = []Entry{
	// 2025
	{"league-of-legends-mid-season-invitational-2025---grey", "2025-06-24T01:11:19.640Z"},
	{"league-of-legends-mid-season-invitational-2025---purple", "2025-06-24T01:11:19.640Z"},
	{"league-of-legends-mid-season-invitational-2025---blue", "2025-06-24T01:11:19.640Z"},
	{"legendus", "2025-06-28T06:15:55.000Z"},
	{"la-velada-v-badge", "2025-07-23T00:00:00.000Z"},
	{"evo-2025", "2025-07-31T00:00:00.000Z"},
	{"borderlands-4-badge---ripper", "2025-06-20T22:01:18.225Z"},
	{"borderlands-4-badge---vault-symbol", "2025-06-20T22:01:18.225Z"},
	{"bot-badge", "2025-06-09T23:43:23.947Z"},
	{"elden-ring-recluse", "2025-05-30T22:26:02.951Z"},
	{"elden-ring-wylder", "2025-05-30T22:26:02.951Z"},
	{"clips-leader", "2025-04-11T20:37:56.758Z"},
	{"marathon-reveal-runner", "2025-04-10T21:04:04.000Z"},
	{"gone-bananas", "2025-04-01T17:07:13.529Z"},

	// 2024
	{"clip-the-halls", "2024-12-03T18:59:14.164Z"},
	{"gold-pixel-heart---together-for-good-24", "2024-12-02T21:05:01.561Z"},
	{"arcane-season-2-premiere", "2024-11-07T21:36:20.704Z"},
	{"dreamcon-2024", "2024-08-28T21:00:06.004Z"},
	{"la-velada-del-ano-iv", "2024-07-13T16:19:09.441Z"},
	{"destiny-2-final-shape-raid-race", "2024-06-06T22:09:47.189Z"},
	{"destiny-2-the-final-shape-streamer", "2024-06-06T22:09:48.208Z"},
	{"minecraft-15th-anniversary-celebration", "2024-05-28T17:21:51.000Z"},
}

// emoteTimestamps holds the curated global-emote release dates, keyed by
// lowercased emote name.
var emoteTimestamps = []Entry{
	// 2025
	{"bosscleared", "2025-08-01T00:00:00.000Z"},
	{"veladapeereira", "2025-07-24T00:00:00.000Z"},
	{"veladaperxitaa", "2025-07-24T00:00:00.000Z"},
	{"veladaroro", "2025-07-24T00:00:00.000Z"},
	{"veladatomas", "2025-07-24T00:00:00.000Z"},
	{"veladaviruzz", "2025-07-24T00:00:00.000Z"},
	{"veladawestcol", "2025-07-24T00:00:00.000Z"},
	{"veladarivaldios", "2025-07-24T00:00:00.000Z"},
	{"veladagrefg", "2025-07-24T00:00:00.000Z"},
	{"veladagaspi", "2025-07-24T00:00:00.000Z"},
	{"veladacarlos", "2025-07-24T00:00:00.000Z"},
	{"veladaandoni", "2025-07-24T00:00:00.000Z"},
	{"veladaarigeli", "2025-07-24T00:00:00.000Z"},
	{"veladaabby", "2025-07-24T00:00:00.000Z"},
	{"veladaalana", "2025-07-24T00:00:00.000Z"},
	{"velocityrun", "2025-07-07T00:00:00.000Z"},
	{"mechacharge", "2025-07-02T00:00:00.000Z"},
	{"ewccrush", "2025-06-16T00:00:00.000Z"},
	{"elegiggle", "2025-06-09T00:00:00.000Z"},
	{"nrwylder", "2025-05-30T00:00:00.000Z"},
	{"pbmmixtape", "2025-05-29T00:00:00.000Z"},
	{"darthjarjar", "2025-05-28T00:00:00.000Z"},
	{"streameru", "2025-05-23T00:00:00.000Z"},
	{"faze", "2025-05-23T00:00:00.000Z"},
	{"oops25", "2025-05-16T00:00:00.000Z"},
	{"zlansup", "2025-04-18T00:00:00.000Z"},
	{"feverfighter", "2025-04-17T00:00:00.000Z"},
	{"baftagames", "2025-04-08T00:00:00.000Z"},
	{"mcdzombiehamburglar", "2025-04-01T00:00:00.000Z"},
	{"inzoipsycat", "2025-03-27T00:00:00.000Z"},
	{"acshadows", "2025-03-20T00:00:00.000Z"},
	{"clixhuh", "2025-03-17T00:00:00.000Z"},
	{"wedidthat", "2025-03-07T00:00:00.000Z"},
	{"splitfictionjosef", "2025-03-05T00:00:00.000Z"},
	{"mizfight", "2025-02-28T00:00:00.000Z"},
	{"andtime", "2025-02-27T00:00:00.000Z"},
	{"lovesmash", "2025-02-14T00:00:00.000Z"},
	{"sharetheve", "2025-02-14T00:00:00.000Z"},
	{"sharethehug", "2025-02-14T00:00:00.000Z"},
	{"sharethelo", "2025-02-14T00:00:00.000Z"},
	{"simsplumbob", "2025-02-04T00:00:00.000Z"},

	// 2024
	{"pewpewpew", "2024-12-20T00:00:00.000Z"},
	{"cinheimer", "2024-11-08T00:00:00.000Z"},
	{"caitthinking", "2024-11-08T00:00:00.000Z"},
	{"ekkochest", "2024-11-08T00:00:00.000Z"},
	{"ambessalove", "2024-11-08T00:00:00.000Z"},
	{"feelsvi", "2024-11-08T00:00:00.000Z"},
	{"jinxlul", "2024-11-08T00:00:00.000Z"},
	{"bratchat", "2024-10-10T00:00:00.000Z"},
	{"bigsad", "2024-09-30T00:00:00.000Z"},
	{"andalusiancrush", "2024-09-23T00:00:00.000Z"},
}

// BadgeTimestamps returns a copy of the static badge table in its defined order.
func BadgeTimestamps() []Entry {
	out := make([]Entry, len(badgeTimestamps))
	copy(out, badgeTimestamps)
	return out
}

// EmoteTimestamps returns a copy of the static emote table in its defined order.
func EmoteTimestamps() []Entry {
	out := make([]Entry, len(emoteTimestamps))
	copy(out, emoteTimestamps)
	return out
}

// BadgeSeedIDs lists the badge identifiers the registry treats as already known
// when it initializes an empty data directory.
func BadgeSeedIDs() []string {
	ids := make([]string, 0, len(badgeTimestamps))
	for _, e := range badgeTimestamps {
		ids = append(ids, e.Key)
	}
	return ids
}
