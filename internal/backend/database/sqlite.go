package database

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDatabase struct {
	db               *sql.DB
	connectionString string
}

type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
}

func NewSQLiteDatabase(connectionString string) (DatabaseService, error) {
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	return &SQLiteDatabase{
		db:               db,
		connectionString: connectionString,
	}, nil
}

func (s *SQLiteDatabase) CreateDatabase() (*sql.DB, error) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id INTEGER NOT NULL,
			is_main INTEGER NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT '',
			image_data BLOB,
			content_type TEXT NOT NULL DEFAULT '',
			description TEXT,
			sort_rank TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_images_owner_rank ON images (owner_id, sort_rank)`,
		// at most one main image per owner
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_images_owner_main ON images (owner_id) WHERE is_main = 1`,
	}
	for _, statement := range statements {
		if _, err := s.db.Exec(statement); err != nil {
			return nil, err
		}
	}
	return s.db, nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) DoesDatabaseExist() bool {
	// In SQLite, the database file is created when you connect to it.
	// So we can assume it exists if we can successfully ping the database.
	err := s.db.Ping()
	return err == nil
}

func (s *SQLiteDatabase) CreateImage(image NewImage) (created *Image, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var lastRank string
	err = tx.QueryRow("SELECT sort_rank FROM images WHERE owner_id = ? ORDER BY sort_rank DESC LIMIT 1", image.OwnerID).Scan(&lastRank)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to read last rank: %w", err)
	}

	if image.IsMain {
		if _, err = tx.Exec("UPDATE images SET is_main = 0 WHERE owner_id = ? AND is_main = 1", image.OwnerID); err != nil {
			return nil, fmt.Errorf("failed to clear previous main image: %w", err)
		}
	}

	result, err := tx.Exec(
		"INSERT INTO images (owner_id, is_main, image_url, image_data, content_type, description, sort_rank) VALUES (?, ?, ?, ?, ?, ?, ?)",
		image.OwnerID, image.IsMain, image.ImageURL, image.ImageData, image.ContentType, image.Description, Next(lastRank),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	created, err = getImage(tx, id, true)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *SQLiteDatabase) GetImageByID(id int64, includeData bool) (*Image, error) {
	return getImage(s.db, id, includeData)
}

func (s *SQLiteDatabase) GetImagesByOwner(ownerID int64, includeData bool) ([]*Image, error) {
	rows, err := s.db.Query("SELECT "+columns(includeData)+" FROM images WHERE owner_id = ? ORDER BY sort_rank ASC, id ASC", ownerID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close() // Explicitly ignore error as we're already returning an error from the function
	}()

	images := []*Image{}
	for rows.Next() {
		img, err := scanImage(rows.Scan)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func (s *SQLiteDatabase) GetMainImage(ownerID int64, includeData bool) (*Image, error) {
	row := s.db.QueryRow("SELECT "+columns(includeData)+" FROM images WHERE owner_id = ? AND is_main = 1", ownerID)
	img, err := scanImage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return img, err
}

func (s *SQLiteDatabase) UpdateImage(id int64, changes ImageChanges) (updated *Image, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	current, err := getImage(tx, id, false)
	if err != nil {
		return nil, err
	}
	if changes.Description != nil {
		if _, err = tx.Exec("UPDATE images SET description = ? WHERE id = ?", *changes.Description, id); err != nil {
			return nil, fmt.Errorf("failed to update description: %w", err)
		}
	}
	if changes.IsMain != nil {
		if *changes.IsMain {
			err = setMain(tx, current.OwnerID, id)
		} else {
			_, err = tx.Exec("UPDATE images SET is_main = 0 WHERE id = ?", id)
		}
		if err != nil {
			return nil, err
		}
	}

	updated, err = getImage(tx, id, false)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SQLiteDatabase) SetMainImage(id int64) (*Image, error) {
	main := true
	return s.UpdateImage(id, ImageChanges{IsMain: &main})
}

func (s *SQLiteDatabase) DeleteImage(id int64) error {
	result, err := s.db.Exec("DELETE FROM images WHERE id = ?", id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func setMain(tx *sql.Tx, ownerID, id int64) error {
	if _, err := tx.Exec("UPDATE images SET is_main = 0 WHERE owner_id = ? AND is_main = 1 AND id != ?", ownerID, id); err != nil {
		return fmt.Errorf("failed to clear previous main image: %w", err)
	}
	if _, err := tx.Exec("UPDATE images SET is_main = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to set main image: %w", err)
	}
	return nil
}

func getImage(q queryer, id int64, includeData bool) (*Image, error) {
	row := q.QueryRow("SELECT "+columns(includeData)+" FROM images WHERE id = ?", id)
	img, err := scanImage(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return img, err
}

func columns(includeData bool) string {
	data := "NULL"
	if includeData {
		data = "image_data"
	}
	return "id, owner_id, is_main, image_url, " + data + ", content_type, description, sort_rank"
}

func scanImage(scan func(dest ...any) error) (*Image, error) {
	var img Image
	var description sql.NullString
	if err := scan(&img.ID, &img.OwnerID, &img.IsMain, &img.ImageURL, &img.ImageData, &img.ContentType, &description, &img.Rank); err != nil {
		return nil, err
	}
	if description.Valid {
		img.Description = &description.String
	}
	return &img, nil
}
