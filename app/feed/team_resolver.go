package feed

import (
	"context"
	"strings"
	"time"

	"github.com/CornerLeague/Media-Page-sub001/app/cache"
)

const (
	resolverCachePrefix = "team_alias:"
	resolverCacheTTL    = time.Hour

	// cachedMiss marks a mention that resolved to no team, so repeated
	// misses skip the alias scan too.
	cachedMiss = "\x00"
)

// teamEntry describes one team the resolver knows about
type teamEntry struct {
	Name    string
	Sport   string
	Aliases []string
	Players []string
}

// defaultTeams is the built-in resolution table. Deployments with a full
// team registry replace this via NewTeamResolverWithTeams.
var defaultTeams = []teamEntry{
	{Name: "Los Angeles Lakers", Sport: "basketball", Aliases: []string{"lakers", "los angeles lakers", "la lakers"}, Players: []string{"LeBron James", "Anthony Davis", "Austin Reaves"}},
	{Name: "Boston Celtics", Sport: "basketball", Aliases: []string{"celtics", "boston celtics"}, Players: []string{"Jayson Tatum", "Jaylen Brown", "Derrick White"}},
	{Name: "Golden State Warriors", Sport: "basketball", Aliases: []string{"warriors", "golden state warriors", "golden state"}, Players: []string{"Stephen Curry", "Draymond Green"}},
	{Name: "Denver Nuggets", Sport: "basketball", Aliases: []string{"nuggets", "denver nuggets"}, Players: []string{"Nikola Jokic", "Jamal Murray"}},
	{Name: "Kansas City Chiefs", Sport: "football", Aliases: []string{"chiefs", "kansas city chiefs"}, Players: []string{"Patrick Mahomes", "Travis Kelce"}},
	{Name: "Buffalo Bills", Sport: "football", Aliases: []string{"bills", "buffalo bills"}, Players: []string{"Josh Allen", "Stefon Diggs"}},
	{Name: "Philadelphia Eagles", Sport: "football", Aliases: []string{"eagles", "philadelphia eagles"}, Players: []string{"Jalen Hurts", "A.J. Brown"}},
	{Name: "Dallas Cowboys", Sport: "football", Aliases: []string{"cowboys", "dallas cowboys"}, Players: []string{"Dak Prescott", "CeeDee Lamb"}},
	{Name: "New York Yankees", Sport: "baseball", Aliases: []string{"yankees", "new york yankees"}, Players: []string{"Aaron Judge", "Gerrit Cole"}},
	{Name: "Los Angeles Dodgers", Sport: "baseball", Aliases: []string{"dodgers", "los angeles dodgers", "la dodgers"}, Players: []string{"Shohei Ohtani", "Mookie Betts", "Freddie Freeman"}},
	{Name: "Atlanta Braves", Sport: "baseball", Aliases: []string{"braves", "atlanta braves"}, Players: []string{"Ronald Acuna", "Matt Olson"}},
	{Name: "Boston Bruins", Sport: "hockey", Aliases: []string{"bruins", "boston bruins"}, Players: []string{"David Pastrnak", "Charlie McAvoy"}},
	{Name: "Edmonton Oilers", Sport: "hockey", Aliases: []string{"oilers", "edmonton oilers"}, Players: []string{"Connor McDavid", "Leon Draisaitl"}},
	{Name: "Colorado Avalanche", Sport: "hockey", Aliases: []string{"avalanche", "colorado avalanche"}, Players: []string{"Nathan MacKinnon", "Cale Makar"}},
}

// TeamMention is one resolved team with its mention count in the text
type TeamMention struct {
	Team     string
	Sport    string
	Mentions int
	Players  []string
}

// TeamResolver maps team aliases found in article text to canonical team
// names. Resolution results are memoized in the injected cache; the
// resolver owns no global state and its lifecycle is tied to the process
// wiring, not a package-level singleton.
type TeamResolver struct {
	cache   cache.Cache
	byAlias map[string]*teamEntry
	teams   []teamEntry
}

func NewTeamResolver(c cache.Cache) *TeamResolver {
	return NewTeamResolverWithTeams(c, defaultTeams)
}

func NewTeamResolverWithTeams(c cache.Cache, teams []teamEntry) *TeamResolver {
	byAlias := make(map[string]*teamEntry)
	for i := range teams {
		for _, alias := range teams[i].Aliases {
			byAlias[alias] = &teams[i]
		}
	}

	return &TeamResolver{
		cache:   c,
		byAlias: byAlias,
		teams:   teams,
	}
}

// Canonical resolves one candidate mention to a canonical team name,
// consulting the cache before scanning the alias table.
func (r *TeamResolver) Canonical(ctx context.Context, mention string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(mention))
	if normalized == "" {
		return "", false
	}

	if cached, ok, err := r.cache.Get(ctx, resolverCachePrefix+normalized); err == nil && ok {
		if cached == cachedMiss {
			return "", false
		}
		return cached, true
	}

	team, found := r.lookup(normalized)

	stored := cachedMiss
	if found {
		stored = team
	}
	// Cache write failures are non-fatal; the next call just rescans
	_ = r.cache.Set(ctx, resolverCachePrefix+normalized, stored, resolverCacheTTL)

	return team, found
}

func (r *TeamResolver) lookup(normalized string) (string, bool) {
	if entry, ok := r.byAlias[normalized]; ok {
		return entry.Name, true
	}

	for alias, entry := range r.byAlias {
		if strings.Contains(normalized, alias) {
			return entry.Name, true
		}
	}

	return "", false
}

// Resolve finds every known team mentioned in the text, with mention
// counts and the notable players that appear alongside.
func (r *TeamResolver) Resolve(ctx context.Context, text string) []TeamMention {
	lower := strings.ToLower(text)

	mentionsByTeam := make(map[string]*TeamMention)
	for i := range r.teams {
		entry := &r.teams[i]

		count := 0
		for _, alias := range entry.Aliases {
			count += strings.Count(lower, alias)
		}
		if count == 0 {
			continue
		}

		mention := &TeamMention{
			Team:     entry.Name,
			Sport:    entry.Sport,
			Mentions: count,
		}

		for _, player := range entry.Players {
			if strings.Contains(lower, strings.ToLower(player)) {
				mention.Players = append(mention.Players, player)
			}
		}

		mentionsByTeam[entry.Name] = mention
	}

	mentions := make([]TeamMention, 0, len(mentionsByTeam))
	for _, m := range mentionsByTeam {
		mentions = append(mentions, *m)
	}

	return mentions
}
