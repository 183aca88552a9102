package database

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

var _ ArticleRepository = (*PostgresArticleRepository)(nil)

// PostgresArticleRepository handles database operations for articles and
// their sport/team associations
type PostgresArticleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) *PostgresArticleRepository {
	return &PostgresArticleRepository{db: db}
}

// InsertArticle persists the article plus its associations inside one
// transaction so a partially associated article is never visible.
func (r *PostgresArticleRepository) InsertArticle(ctx context.Context, article Article, sports []SportAssociation, teams []TeamAssociation) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", &StorageError{Op: "begin article tx", Err: err}
	}
	defer tx.Rollback()

	var id string
	err = tx.QueryRowContext(ctx, `
		INSERT INTO articles (
			snapshot_id, title, summary, content, author, source_name, url,
			published_at, category, word_count, reading_time_minutes,
			sentiment_score, relevance_score, is_active, is_featured
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, article.SnapshotID, article.Title, article.Summary, article.Content,
		article.Author, article.SourceName, article.URL, article.PublishedAt,
		article.Category, article.WordCount, article.ReadingTime,
		article.Sentiment, article.RelevanceScore, article.Active, article.Featured,
	).Scan(&id)
	if err != nil {
		return "", &StorageError{Op: "insert article", Err: err}
	}

	for _, sport := range sports {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO article_sports (article_id, sport, relevance)
			VALUES ($1, $2, $3)
		`, id, sport.Sport, sport.Relevance)
		if err != nil {
			return "", &StorageError{Op: "insert sport association", Err: err}
		}
	}

	for _, team := range teams {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO article_teams (article_id, team, relevance, mentioned_players)
			VALUES ($1, $2, $3, $4)
		`, id, team.Team, team.Relevance, pq.Array(team.MentionedPlayers))
		if err != nil {
			return "", &StorageError{Op: "insert team association", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", &StorageError{Op: "commit article tx", Err: err}
	}

	return id, nil
}

func (r *PostgresArticleRepository) GetArticleCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}
