// Package file 提供 JSON 文件存储实现
//
// 单机客户端的默认持久化后端，相当于浏览器的 localStorage：
// 每次写入都会同步落盘（临时文件 + 原子替换）。
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	corelog "werss-client/internal/core/log"
	"werss-client/internal/core/store"
)

const storeType = "file"

// FileStore JSON 文件持久化存储
type FileStore struct {
	filePath string
	data     map[string]string
	mu       sync.RWMutex
	closed   bool
}

// NewFileStore 创建文件存储并加载已有数据
func NewFileStore(filePath string) (*FileStore, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file store: empty path")
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	s := &FileStore{
		filePath: filePath,
		data:     make(map[string]string),
	}

	// 文件损坏时从空数据开始，不阻塞启动
	if err := s.load(); err != nil {
		corelog.Warnf("FileStore: failed to load %s: %v, starting with empty data", filePath, err)
	}
	return s, nil
}

// Path 返回存储文件路径
func (s *FileStore) Path() string {
	return s.filePath
}

// load 从文件加载数据
func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	s.data = data
	corelog.Debugf("FileStore: loaded %d keys from %s", len(data), s.filePath)
	return nil
}

// saveLocked 保存数据到文件，调用方需持有写锁
func (s *FileStore) saveLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return store.ErrSerializationFailed
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// 原子替换
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Get 获取值
func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", store.ErrClosed
	}
	value, ok := s.data[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return value, nil
}

// Set 设置值并落盘
func (s *FileStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.saveLocked(); err != nil {
		// 回滚内存状态，保持与磁盘一致
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return store.NewStoreError(storeType, "Set", key, err)
	}
	return nil
}

// Delete 删除值并落盘
func (s *FileStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return store.ErrClosed
	}
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.saveLocked(); err != nil {
		s.data[key] = prev
		return store.NewStoreError(storeType, "Delete", key, err)
	}
	return nil
}

// Exists 检查键是否存在
func (s *FileStore) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, store.ErrClosed
	}
	_, ok := s.data[key]
	return ok, nil
}

// Close 关闭存储
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ store.StringStore = (*FileStore)(nil)
