package entity

import (
	"net/url"
	"path"
	"strings"
)

// Angle ракурс снимка лица
type Angle string

const (
	AngleFront Angle = "front"
	AngleLeft  Angle = "left"
	AngleRight Angle = "right"
)

// Valid сообщает, известен ли ракурс
func (a Angle) Valid() bool {
	switch a {
	case AngleFront, AngleLeft, AngleRight:
		return true
	}
	return false
}

// ImageReference ссылка на загруженное фото и его ракурс
type ImageReference struct {
	URL   string `json:"url"`
	Angle Angle  `json:"angle"`
}

var imageSuffixes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// HasImageSuffix проверяет, что путь URL заканчивается известным расширением.
func (r ImageReference) HasImageSuffix() bool {
	_, ok := r.SuffixMIMEType()
	return ok
}

// SuffixMIMEType выводит MIME-тип из расширения в пути URL.
func (r ImageReference) SuffixMIMEType() (string, bool) {
	u, err := url.Parse(strings.TrimSpace(r.URL))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	mime, ok := imageSuffixes[strings.ToLower(path.Ext(u.Path))]
	return mime, ok
}

// PrimaryIndex возвращает индекс основного снимка: первый фронтальный,
// иначе первый по порядку. Для пустого списка -1.
func PrimaryIndex(images []ImageReference) int {
	if len(images) == 0 {
		return -1
	}
	for i, img := range images {
		if img.Angle == AngleFront {
			return i
		}
	}
	return 0
}

// SecondaryIndexes возвращает индексы боковых снимков относительно основного.
func SecondaryIndexes(images []ImageReference, primary int) []int {
	out := make([]int, 0, len(images))
	for i, img := range images {
		if i == primary || img.Angle == AngleFront {
			continue
		}
		out = append(out, i)
	}
	return out
}
