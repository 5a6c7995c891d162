package journal

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"sync"
)

// 檔案權限
const (
	// rw-r--r--
	FileModeDefault fs.FileMode = 0644

	// rw-------
	FileModePrivate fs.FileMode = 0600
)

// Journal 以 JSON Lines 格式附加寫入的檔案
type Journal struct {
	file *os.File
	mu   sync.Mutex
	sync bool
}

// Open 開啟或建立 Journal 檔案
// O_APPEND 每次寫入時自動跳到文件末尾
// syncEachWrite 為 true 時每筆都 fsync
func Open(path string, syncEachWrite bool) (*Journal, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeDefault)
	if err != nil {
		return nil, err
	}
	return &Journal{file: file, sync: syncEachWrite}, nil
}

// Append 寫入一筆資料
func (j *Journal) Append(v any) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := json.NewEncoder(j.file).Encode(v); err != nil {
		return err
	}
	if j.sync {
		return j.file.Sync()
	}
	return nil
}

// Sync 強制刷入硬碟
func (j *Journal) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Sync()
}

// Close 關閉檔案
func (j *Journal) Close() error {
	return j.file.Close()
}

// ReadAll 從頭逐筆讀取
// callback 接收原始 JSON，避免一次載入所有資料
func (j *Journal) ReadAll(callback func(raw json.RawMessage) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	decoder := json.NewDecoder(j.file)
	for {
		var raw json.RawMessage
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := callback(raw); err != nil {
			return err
		}
	}
}
