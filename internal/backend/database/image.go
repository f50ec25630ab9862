package database

type Image struct {
	ID          int64   `db:"id"`
	OwnerID     int64   `db:"owner_id"`
	IsMain      bool    `db:"is_main"`
	ImageURL    string  `db:"image_url"`
	ImageData   []byte  `db:"image_data"` // raw bytes, nil when not requested
	ContentType string  `db:"content_type"`
	Description *string `db:"description"`
	Rank        string  `db:"sort_rank"` // LexoRank string to maintain ordering
}
