package database

import (
	"fmt"
)

type SQLQuestionRepository struct {
	db *DB
}

var _ QuestionRepository = (*SQLQuestionRepository)(nil)

func NewQuestionRepository(db *DB) *SQLQuestionRepository {
	return &SQLQuestionRepository{db: db}
}

func (r *SQLQuestionRepository) Insert(articleID int64, question, answer string) (int64, error) {
	result, err := r.db.Exec(`
		INSERT INTO questions (article_id, question, answer) VALUES (?, ?, ?)
	`, articleID, question, answer)
	if err != nil {
		return 0, fmt.Errorf("failed to insert question: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted question id: %w", err)
	}

	return id, nil
}

func (r *SQLQuestionRepository) ListByArticle(articleID int64) ([]Question, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, question, answer, created_at
		FROM questions
		WHERE article_id = ?
		ORDER BY created_at DESC
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.ArticleID, &q.Question, &q.Answer, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan question row: %w", err)
		}
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question rows: %w", err)
	}

	return questions, nil
}
