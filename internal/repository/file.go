package repository

import (
	"database/sql"
	"errors"

	"github.com/templui/storyloom/internal/model"
)

var (
	ErrFileNotFound = errors.New("file not found")
)

type FileRepository interface {
	WithTx(tx Querier) FileRepository
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	Files(ownerType, ownerID string) ([]*model.File, error)
	DeleteByOwner(ownerType, ownerID string) error
}

type fileRepository struct {
	db Querier
}

func NewFileRepository(db Querier) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) WithTx(tx Querier) FileRepository {
	return &fileRepository{db: tx}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, user_id, owner_type, owner_id, type, filename, original_name, mime_type, size, storage_path, public, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(query,
		file.ID,
		file.UserID,
		file.OwnerType,
		file.OwnerID,
		file.Type,
		file.Filename,
		file.OriginalName,
		file.MimeType,
		file.Size,
		file.StoragePath,
		file.Public,
		file.CreatedAt,
	)

	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := r.db.Get(file, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) Files(ownerType, ownerID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE owner_type = $1 AND owner_id = $2 ORDER BY created_at`

	err := r.db.Select(&files, query, ownerType, ownerID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) DeleteByOwner(ownerType, ownerID string) error {
	query := `DELETE FROM files WHERE owner_type = $1 AND owner_id = $2`
	_, err := r.db.Exec(query, ownerType, ownerID)
	return err
}
