package database

import (
	"database/sql"
	"errors"
)

var ErrNotFound = errors.New("image not found")

type DatabaseService interface {
	CreateDatabase() (*sql.DB, error)
	DoesDatabaseExist() bool
	Close() error

	// CreateImage inserts a row at the end of the owner's order. When the row is
	// main, any previous main image of the owner is cleared in the same transaction.
	CreateImage(image NewImage) (*Image, error)
	GetImageByID(id int64, includeData bool) (*Image, error)
	GetImagesByOwner(ownerID int64, includeData bool) ([]*Image, error)
	// GetMainImage returns ErrNotFound when the owner has no main image.
	GetMainImage(ownerID int64, includeData bool) (*Image, error)
	UpdateImage(id int64, changes ImageChanges) (*Image, error)
	SetMainImage(id int64) (*Image, error)
	DeleteImage(id int64) error
}
