package feed

import (
	"context"
	"testing"

	"github.com/CornerLeague/Media-Page-sub001/app/cache"
)

func newTestClassifier() *Classifier {
	resolver := NewTeamResolver(cache.NewMemoryCache(64))
	return NewClassifier(resolver)
}

func TestClassifyBasketballArticle(t *testing.T) {
	c := newTestClassifier()

	classification, err := c.Classify(context.Background(),
		"Lakers win NBA basketball thriller",
		"LeBron James led the Los Angeles Lakers to a dramatic basketball victory with a clutch three-pointer.",
		"test-source")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if classification.Category != "basketball" {
		t.Errorf("Expected category 'basketball', got %q", classification.Category)
	}

	if len(classification.Teams) == 0 {
		t.Fatal("Expected at least one team association")
	}
	if classification.Teams[0].Team != "Los Angeles Lakers" {
		t.Errorf("Expected 'Los Angeles Lakers', got %q", classification.Teams[0].Team)
	}

	foundLeBron := false
	for _, player := range classification.Teams[0].MentionedPlayers {
		if player == "LeBron James" {
			foundLeBron = true
		}
	}
	if !foundLeBron {
		t.Error("Expected LeBron James in mentioned players")
	}

	if classification.Sentiment <= 0 {
		t.Errorf("Expected positive sentiment for a win story, got %f", classification.Sentiment)
	}
}

func TestClassifyNonSportsArticle(t *testing.T) {
	c := newTestClassifier()

	classification, err := c.Classify(context.Background(),
		"Quarterly earnings strengthen cloud revenue",
		"The company reported quarterly earnings with growth in its cloud computing division.",
		"test-source")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if classification.Category != CategoryGeneral {
		t.Errorf("Expected category 'general', got %q", classification.Category)
	}
	if len(classification.Teams) != 0 {
		t.Errorf("Expected no team associations, got %d", len(classification.Teams))
	}
}

func TestClassifyNegativeSentiment(t *testing.T) {
	c := newTestClassifier()

	classification, err := c.Classify(context.Background(),
		"Star player injured in crushing loss",
		"The injury overshadowed a painful defeat as the team lost again and the slump continued.",
		"test-source")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if classification.Sentiment >= 0 {
		t.Errorf("Expected negative sentiment, got %f", classification.Sentiment)
	}
}

func TestScoreSentimentNeutral(t *testing.T) {
	if got := scoreSentiment("the schedule was announced on tuesday"); got != 0 {
		t.Errorf("Expected 0 sentiment for neutral text, got %f", got)
	}
}

func TestTeamResolverCanonical(t *testing.T) {
	resolver := NewTeamResolver(cache.NewMemoryCache(64))
	ctx := context.Background()

	team, ok := resolver.Canonical(ctx, "Lakers")
	if !ok {
		t.Fatal("Expected 'Lakers' to resolve")
	}
	if team != "Los Angeles Lakers" {
		t.Errorf("Expected 'Los Angeles Lakers', got %q", team)
	}

	// Second lookup hits the cache; result must be identical
	cached, ok := resolver.Canonical(ctx, "Lakers")
	if !ok || cached != team {
		t.Errorf("Expected cached resolution %q, got %q", team, cached)
	}

	if _, ok := resolver.Canonical(ctx, "Unknown Club"); ok {
		t.Error("Expected unknown mention to not resolve")
	}

	// Negative results are cached too
	if _, ok := resolver.Canonical(ctx, "Unknown Club"); ok {
		t.Error("Expected cached miss to stay a miss")
	}
}

func TestTeamResolverResolve(t *testing.T) {
	resolver := NewTeamResolver(cache.NewMemoryCache(64))

	mentions := resolver.Resolve(context.Background(),
		"The Celtics beat the Lakers. The Celtics looked unstoppable.")

	byTeam := make(map[string]TeamMention)
	for _, m := range mentions {
		byTeam[m.Team] = m
	}

	if len(byTeam) != 2 {
		t.Fatalf("Expected 2 teams, got %d", len(byTeam))
	}
	if byTeam["Boston Celtics"].Mentions < 2 {
		t.Errorf("Expected at least 2 Celtics mentions, got %d", byTeam["Boston Celtics"].Mentions)
	}
}
