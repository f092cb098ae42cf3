package dto

// PageResponse metadatos de paginación (limit/offset).
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
