package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// Run describes one analysis run
type Run struct {
	ID             uuid.UUID
	Command        string
	Stemmer        string
	K              int
	Topics         int
	Seed           int64
	MinDocFraction float64
	Documents      int
	Inertia        float64
	Converged      bool
	CreatedAt      time.Time
}

// Centroid is a k-means cluster center with its size
type Centroid struct {
	Cluster int
	Size    int
	Vector  []float64
}

// Results bundles everything a run produced. Empty slices are skipped.
type Results struct {
	Run         *Run
	Documents   []models.ProcessedDocument
	Assignments []models.Assignment
	TopicTerms  []models.TopicTerm
	Centroids   []Centroid
}

// ResultRepository defines the interface for result storage operations
type ResultRepository interface {
	Migrate(ctx context.Context) error
	Save(ctx context.Context, results *Results) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	GetAssignments(ctx context.Context, runID uuid.UUID) ([]models.Assignment, error)
	GetTopicTerms(ctx context.Context, runID uuid.UUID) ([]models.TopicTerm, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SQLResultRepository implements ResultRepository over database/sql
type SQLResultRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewResultRepository creates a new SQLResultRepository
func NewResultRepository(db *sql.DB, dialect Dialect) *SQLResultRepository {
	return &SQLResultRepository{db: db, dialect: dialect}
}

// Migrate creates the results tables if they don't exist
func (r *SQLResultRepository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.Schema() {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Save inserts the run and all of its tables in a single transaction. A
// missing run id is generated.
func (r *SQLResultRepository) Save(ctx context.Context, results *Results) error {
	run := results.Run
	if run == nil {
		return fmt.Errorf("save results: no run")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.dialect.Rebind(`
		INSERT INTO runs (id, command, stemmer, k, topics, seed, min_doc_fraction, documents, inertia, converged, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		run.ID.String(),
		run.Command,
		run.Stemmer,
		run.K,
		run.Topics,
		run.Seed,
		run.MinDocFraction,
		run.Documents,
		run.Inertia,
		run.Converged,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	id := run.ID.String()
	err = r.insertBatch(ctx, tx, `INSERT INTO documents (run_id, doc_id, text) VALUES (?, ?, ?)`,
		len(results.Documents), func(i int) ([]any, error) {
			d := results.Documents[i]
			return []any{id, d.ID, d.Text}, nil
		})
	if err != nil {
		return fmt.Errorf("insert documents: %w", err)
	}

	err = r.insertBatch(ctx, tx, `INSERT INTO assignments (run_id, doc_id, cluster) VALUES (?, ?, ?)`,
		len(results.Assignments), func(i int) ([]any, error) {
			a := results.Assignments[i]
			cluster := sql.NullInt64{Int64: int64(a.Cluster), Valid: a.Assigned}
			return []any{id, a.DocID, cluster}, nil
		})
	if err != nil {
		return fmt.Errorf("insert assignments: %w", err)
	}

	err = r.insertBatch(ctx, tx, `INSERT INTO topic_terms (run_id, topic, term, beta) VALUES (?, ?, ?, ?)`,
		len(results.TopicTerms), func(i int) ([]any, error) {
			t := results.TopicTerms[i]
			return []any{id, t.Topic, t.Term, t.Beta}, nil
		})
	if err != nil {
		return fmt.Errorf("insert topic terms: %w", err)
	}

	err = r.insertBatch(ctx, tx, `INSERT INTO centroids (run_id, cluster, size, centroid) VALUES (?, ?, ?, ?)`,
		len(results.Centroids), func(i int) ([]any, error) {
			c := results.Centroids[i]
			vec, err := r.dialect.Vector(c.Vector)
			if err != nil {
				return nil, err
			}
			return []any{id, c.Cluster, c.Size, vec}, nil
		})
	if err != nil {
		return fmt.Errorf("insert centroids: %w", err)
	}

	return tx.Commit()
}

// insertBatch prepares query once and executes it for n rows
func (r *SQLResultRepository) insertBatch(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) ([]any, error)) error {
	if n == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, r.dialect.Rebind(query))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		row, err := args(i)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return err
		}
	}
	return nil
}

// GetRun retrieves a run by its ID
func (r *SQLResultRepository) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	query := r.dialect.Rebind(`
		SELECT id, command, stemmer, k, topics, seed, min_doc_fraction, documents, inertia, converged, created_at
		FROM runs
		WHERE id = ?
	`)

	run := &Run{}
	var runID string
	err := r.db.QueryRowContext(ctx, query, id.String()).Scan(
		&runID,
		&run.Command,
		&run.Stemmer,
		&run.K,
		&run.Topics,
		&run.Seed,
		&run.MinDocFraction,
		&run.Documents,
		&run.Inertia,
		&run.Converged,
		&run.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(runID)
	if err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	return run, nil
}

// GetAssignments retrieves the cluster assignments of a run in document order
func (r *SQLResultRepository) GetAssignments(ctx context.Context, runID uuid.UUID) ([]models.Assignment, error) {
	query := r.dialect.Rebind(`
		SELECT doc_id, cluster
		FROM assignments
		WHERE run_id = ?
		ORDER BY doc_id ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		var cluster sql.NullInt64
		if err := rows.Scan(&a.DocID, &cluster); err != nil {
			return nil, err
		}
		a.Cluster = int(cluster.Int64)
		a.Assigned = cluster.Valid
		assignments = append(assignments, a)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// GetTopicTerms retrieves the topic-term table of a run
func (r *SQLResultRepository) GetTopicTerms(ctx context.Context, runID uuid.UUID) ([]models.TopicTerm, error) {
	query := r.dialect.Rebind(`
		SELECT topic, term, beta
		FROM topic_terms
		WHERE run_id = ?
		ORDER BY topic ASC, term ASC
	`)

	rows, err := r.db.QueryContext(ctx, query, runID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var terms []models.TopicTerm
	for rows.Next() {
		var t models.TopicTerm
		if err := rows.Scan(&t.Topic, &t.Term, &t.Beta); err != nil {
			return nil, err
		}
		terms = append(terms, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return terms, nil
}

// Delete removes a run; its tables cascade
func (r *SQLResultRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM runs WHERE id = ?`), id.String())
	return err
}
