package web

import "github.com/EgorLis/my-records/internal/domain"

// Deps: всё, что нужно HTTP-слою от инфраструктуры
type Deps struct {
	Records domain.RecordsRepo
	Storage domain.BlobStore
	Cache   domain.Cache // nil, если Redis не настроен
}
