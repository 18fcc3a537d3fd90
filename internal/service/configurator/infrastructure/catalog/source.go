package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
)

//go:embed bicycle.yaml
var bicycleCatalog []byte

// EmbeddedSource 返回内置的演示自行车目录。
type EmbeddedSource struct{}

func (EmbeddedSource) Fetch(context.Context) ([]byte, error) {
	out := make([]byte, len(bicycleCatalog))
	copy(out, bicycleCatalog)
	return out, nil
}

// FileSource 从本地文件读取目录文档。
type FileSource struct {
	Path string
}

func (s FileSource) Fetch(context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", s.Path, err)
	}
	return data, nil
}

// Getter 是 httpclient.Client 中被用到的方法。
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// URLSource 通过可追踪的 HTTP 客户端下载目录文档。
type URLSource struct {
	Client Getter
	URL    string
}

func (s URLSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := s.Client.Get(ctx, s.URL)
	if err != nil {
		return nil, fmt.Errorf("download catalog %s: %w", s.URL, err)
	}
	return data, nil
}
