package feed

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

const CategoryGeneral = "general"

// sportKeywords drive category and sport-relevance detection
var sportKeywords = map[string][]string{
	"basketball": {"basketball", "nba", "wnba", "three-pointer", "dunk", "rebound", "backcourt", "hardwood"},
	"football":   {"football", "nfl", "quarterback", "touchdown", "field goal", "interception", "end zone", "gridiron"},
	"baseball":   {"baseball", "mlb", "home run", "inning", "pitcher", "strikeout", "shortstop", "bullpen"},
	"hockey":     {"hockey", "nhl", "puck", "power play", "hat trick", "goaltender", "face-off", "blue line"},
	"soccer":     {"soccer", "premier league", "mls", "midfielder", "penalty kick", "offside", "striker"},
}

// Small lexicons are enough for coarse tone scoring of sports coverage
var positiveWords = map[string]bool{
	"win": true, "wins": true, "won": true, "victory": true, "triumph": true,
	"dominant": true, "stellar": true, "clutch": true, "historic": true,
	"record": true, "streak": true, "comeback": true, "champion": true,
	"champions": true, "championship": true, "best": true, "great": true,
	"outstanding": true, "impressive": true, "brilliant": true,
}

var negativeWords = map[string]bool{
	"loss": true, "lose": true, "loses": true, "lost": true, "defeat": true,
	"injury": true, "injured": true, "suspension": true, "suspended": true,
	"struggle": true, "struggles": true, "slump": true, "benched": true,
	"worst": true, "fired": true, "scandal": true, "blown": true,
	"collapse": true, "eliminated": true,
}

var capitalizedPhrasePattern = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`)

// Classifier assigns a category, per-sport and per-team relevance scores,
// and a sentiment score to parsed article content. Team resolution goes
// through the injected TeamResolver and its cache.
type Classifier struct {
	resolver *TeamResolver
}

func NewClassifier(resolver *TeamResolver) *Classifier {
	return &Classifier{resolver: resolver}
}

func (c *Classifier) Classify(ctx context.Context, title, content, sourceName string) (*Classification, error) {
	text := strings.ToLower(title + " " + content)
	titleLower := strings.ToLower(title)

	classification := &Classification{
		Category:  CategoryGeneral,
		Sentiment: scoreSentiment(text),
		Sports:    scoreSports(text, titleLower),
		Teams:     c.scoreTeams(ctx, title, content),
	}

	if len(classification.Sports) > 0 {
		classification.Category = classification.Sports[0].Sport
	}

	return classification, nil
}

// scoreSports counts keyword hits per sport; title hits weigh triple.
// Scores are clamped to [0, 1] and returned sorted by relevance.
func scoreSports(text, title string) []SportRelevance {
	var sports []SportRelevance

	for sport, keywords := range sportKeywords {
		hits := 0
		for _, keyword := range keywords {
			hits += strings.Count(text, keyword)
			hits += 2 * strings.Count(title, keyword)
		}
		if hits == 0 {
			continue
		}

		relevance := float64(hits) / 10.0
		if relevance > 1.0 {
			relevance = 1.0
		}
		sports = append(sports, SportRelevance{Sport: sport, Relevance: relevance})
	}

	sort.Slice(sports, func(i, j int) bool {
		if sports[i].Relevance != sports[j].Relevance {
			return sports[i].Relevance > sports[j].Relevance
		}
		return sports[i].Sport < sports[j].Sport
	})

	return sports
}

func (c *Classifier) scoreTeams(ctx context.Context, title, content string) []TeamRelevance {
	mentions := c.resolver.Resolve(ctx, title+" "+content)

	// Teams the title names outright get a relevance boost; candidate
	// phrases resolve through the cached alias lookup
	titleTeams := make(map[string]bool)
	for _, phrase := range capitalizedPhrasePattern.FindAllString(title, -1) {
		if team, ok := c.resolver.Canonical(ctx, phrase); ok {
			titleTeams[team] = true
		}
	}

	teams := make([]TeamRelevance, 0, len(mentions))
	for _, mention := range mentions {
		relevance := float64(mention.Mentions) / 5.0
		if relevance > 0.8 {
			relevance = 0.8
		}
		if titleTeams[mention.Team] {
			relevance += 0.2
		}
		if relevance > 1.0 {
			relevance = 1.0
		}

		teams = append(teams, TeamRelevance{
			Team:             mention.Team,
			Relevance:        relevance,
			MentionedPlayers: mention.Players,
		})
	}

	sort.Slice(teams, func(i, j int) bool {
		if teams[i].Relevance != teams[j].Relevance {
			return teams[i].Relevance > teams[j].Relevance
		}
		return teams[i].Team < teams[j].Team
	})

	return teams
}

// scoreSentiment returns the balance of positive and negative lexicon
// hits in [-1, 1]; 0 when neither appears.
func scoreSentiment(text string) float64 {
	positives, negatives := 0, 0
	for _, token := range strings.Fields(text) {
		token = strings.Trim(token, ".,!?;:'\"()")
		if positiveWords[token] {
			positives++
		}
		if negativeWords[token] {
			negatives++
		}
	}

	total := positives + negatives
	if total == 0 {
		return 0
	}

	return float64(positives-negatives) / float64(total)
}
