package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// DefaultModelID is the id of the hand model installed at startup.
const DefaultModelID = "default"

// HandModel is one entry of the hand model registry.
type HandModel struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	BoneAxis  string    `json:"boneAxis"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HandModelRepository provides CRUD operations for hand models.
type HandModelRepository struct {
	db *sql.DB
}

// HandModels returns the hand model repository for this store.
func (s *Store) HandModels() *HandModelRepository {
	return &HandModelRepository{db: s.db}
}

// Create inserts a new hand model. An empty id is filled with a new UUID
// and an empty bone axis is stored as "z".
func (r *HandModelRepository) Create(m *HandModel) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.BoneAxis == "" {
		m.BoneAxis = "z"
	}

	_, err := r.db.Exec(
		`INSERT INTO hand_models (id, name, path, bone_axis, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Path, m.BoneAxis, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

// Ensure inserts m unless a model with the same id already exists.
func (r *HandModelRepository) Ensure(m *HandModel) error {
	_, err := r.GetByID(m.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	return r.Create(m)
}

// GetByID retrieves a hand model by its ID.
func (r *HandModelRepository) GetByID(id string) (*HandModel, error) {
	m := &HandModel{}
	err := r.db.QueryRow(
		`SELECT id, name, path, bone_axis, created_at, updated_at
		 FROM hand_models WHERE id = ?`,
		id,
	).Scan(&m.ID, &m.Name, &m.Path, &m.BoneAxis, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// List retrieves all hand models ordered by name.
func (r *HandModelRepository) List() ([]*HandModel, error) {
	rows, err := r.db.Query(
		`SELECT id, name, path, bone_axis, created_at, updated_at
		 FROM hand_models ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*HandModel
	for rows.Next() {
		m := &HandModel{}
		if err := rows.Scan(&m.ID, &m.Name, &m.Path, &m.BoneAxis, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return models, nil
}

// Update updates an existing hand model.
func (r *HandModelRepository) Update(m *HandModel) error {
	m.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE hand_models SET name = ?, path = ?, bone_axis = ?, updated_at = ?
		 WHERE id = ?`,
		m.Name, m.Path, m.BoneAxis, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a hand model by its ID.
func (r *HandModelRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM hand_models WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
