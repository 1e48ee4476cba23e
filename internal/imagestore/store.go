// Package imagestore persists uploaded recipe images and hands back a stable
// URL that is stored on the recipe row.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/recipehub/config"
	"github.com/d60-Lab/recipehub/internal/apperr"
)

// MaxImageBytes 解码后的图片大小上限
const MaxImageBytes = 5 << 20

// Store 保存图片字节并返回引用
type Store interface {
	Save(ctx context.Context, img *Image) (string, error)
	// Delete 删除 Save 返回的引用；引用不属于本存储时忽略
	Delete(ctx context.Context, ref string) error
}

// Image 解码后的上传图片
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Decode 解析 "data:image/png;base64,...." 形式的图片
func Decode(payload string) (*Image, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, apperr.FieldValidation("image", "image required")
	}
	header, encoded, ok := strings.Cut(payload, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, apperr.FieldValidation("image", "image must be a base64 data URI")
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, apperr.FieldValidation("image", "image is not valid base64")
	}
	if len(data) == 0 {
		return nil, apperr.FieldValidation("image", "image is empty")
	}
	if len(data) > MaxImageBytes {
		return nil, apperr.FieldValidation("image", "image exceeds %d bytes", MaxImageBytes)
	}

	// 以内容嗅探为准，不信任客户端声明的类型
	contentType := http.DetectContentType(data)
	ext, ok := allowedTypes[contentType]
	if !ok {
		return nil, apperr.FieldValidation("image", "unsupported image type %s", contentType)
	}
	return &Image{Data: data, ContentType: contentType, Ext: ext}, nil
}

func objectName(img *Image) string {
	return fmt.Sprintf("recipes/%s.%s", uuid.New().String(), img.Ext)
}

// New 按配置选择存储实现
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.Local.Dir, cfg.Local.BaseURL)
	case "s3":
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
