package fetch

import (
	"context"
	"fmt"
	"strings"

	"skin-advisor/internal/domain/apperr"
	"skin-advisor/internal/domain/port"
)

// Router выбирает загрузчик по схеме ссылки
type Router struct {
	fetchers map[string]port.ImageFetcher
}

// NewRouter создаёт маршрутизатор; http и https обслуживает web
func NewRouter(web port.ImageFetcher) *Router {
	r := &Router{fetchers: make(map[string]port.ImageFetcher)}
	if web != nil {
		r.Register("http", web)
		r.Register("https", web)
	}
	return r
}

// Register добавляет загрузчик для схемы, например s3 или mem
func (r *Router) Register(scheme string, f port.ImageFetcher) *Router {
	r.fetchers[strings.ToLower(scheme)] = f
	return r
}

func (r *Router) Fetch(ctx context.Context, url string) (*port.FetchedImage, error) {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "fetch.route", fmt.Sprintf("image url %q has no scheme", url))
	}
	f, ok := r.fetchers[strings.ToLower(scheme)]
	if !ok {
		return nil, apperr.New(apperr.KindValidation, "fetch.route", fmt.Sprintf("unsupported image url scheme %q", scheme))
	}
	return f.Fetch(ctx, url)
}

var _ port.ImageFetcher = (*Router)(nil)
