package post

import (
	"errors"

	"github.com/NaiduPavan213/MindMile/internal/post/entity"
)

// MaxUploadsPerPost caps the number of file parts accepted in one submission.
const MaxUploadsPerPost = 10

const (
	maxImageBytes = 5 << 20  // 5 MiB
	maxVideoBytes = 50 << 20 // 50 MiB
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported file type")
	ErrImageTooLarge        = errors.New("image exceeds 5MB limit")
	ErrVideoTooLarge        = errors.New("video exceeds 50MB limit")
)

var imageMimes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

var videoMimes = map[string]bool{
	"video/mp4":  true,
	"video/webm": true,
}

// Upload is one uploaded file descriptor as received at the transport
// boundary: raw bytes, the declared content type, and the declared size.
type Upload struct {
	Data        []byte
	ContentType string
	Size        int64
}

// ValidateUploads checks every upload against the media policy and, on
// success, returns the media entities in submission order. The batch is
// all-or-nothing: the first offending file fails the whole request, so no
// partial post is ever persisted. It has no side effects.
func ValidateUploads(uploads []Upload) ([]entity.Media, error) {
	media := make([]entity.Media, 0, len(uploads))
	for _, u := range uploads {
		switch {
		case imageMimes[u.ContentType]:
			if u.Size > maxImageBytes {
				return nil, ErrImageTooLarge
			}
			media = append(media, entity.Media{
				Data:        u.Data,
				ContentType: u.ContentType,
				Kind:        entity.MediaKindImage,
			})
		case videoMimes[u.ContentType]:
			if u.Size > maxVideoBytes {
				return nil, ErrVideoTooLarge
			}
			media = append(media, entity.Media{
				Data:        u.Data,
				ContentType: u.ContentType,
				Kind:        entity.MediaKindVideo,
			})
		default:
			return nil, ErrUnsupportedMediaType
		}
	}
	return media, nil
}
