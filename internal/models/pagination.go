package models

// Pagination is cursor metadata returned alongside listings. Next and Prev
// carry the boundary entity ids of the returned page.
type Pagination struct {
	Count int     `json:"count"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}
