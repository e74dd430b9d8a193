package watcher

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bookrag/backend/internal/infrastructure/log"
)

// DocsWatcher 文档目录监听器
// 监听 markdown 文件的写入和创建，防抖后触发重新摄取
type DocsWatcher struct {
	dir      string
	debounce time.Duration
	trigger  func()
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖相关
	debounceTimer *time.Timer
	debounceMu    sync.Mutex

	// 控制
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewDocsWatcher 创建文档监听器
// trigger 在防抖窗口结束后被调用（单独的 goroutine）
func NewDocsWatcher(dir string, trigger func()) (*DocsWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &DocsWatcher{
		dir:      dir,
		debounce: 2 * time.Second,
		trigger:  trigger,
		watcher:  watcher,
		logger:   log.NewModuleLogger("watcher", "docs"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动监听
func (w *DocsWatcher) Start() error {
	w.logger.Info("Starting docs watcher",
		"dir", w.dir,
	)

	if err := w.addDirRecursive(w.dir); err != nil {
		return err
	}

	w.wg.Add(1)
	go w.watchLoop()

	return nil
}

// Stop 停止监听
func (w *DocsWatcher) Stop() {
	w.logger.Info("Stopping docs watcher")

	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceMu.Unlock()

	w.logger.Info("Docs watcher stopped")
}

// addDirRecursive 递归添加目录监听
func (w *DocsWatcher) addDirRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // 忽略无法访问的目录
		}

		if info.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Debug("Failed to add directory to watch",
					"path", path,
					"error", err,
				)
			}
		}
		return nil
	})
}

// watchLoop 事件监听循环
func (w *DocsWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 处理文件系统事件
func (w *DocsWatcher) handleFsEvent(event fsnotify.Event) {
	// 新创建的子目录需要加入监听
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.watcher.Add(event.Name)
			return
		}
	}

	if !w.isMarkdownFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.scheduleTrigger(event.Name)
}

// isMarkdownFile 判断是否为书籍文档文件
func (w *DocsWatcher) isMarkdownFile(path string) bool {
	return strings.HasSuffix(path, ".md") || strings.HasSuffix(path, ".mdx")
}

// scheduleTrigger 防抖调度重新摄取
// 连续的写入事件合并为一次触发
func (w *DocsWatcher) scheduleTrigger(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.logger.Debug("Document change detected",
		"path", path,
	)

	w.debounceTimer = time.AfterFunc(w.debounce, func() {
		w.logger.Info("Docs changed, triggering re-ingestion")
		w.trigger()
	})
}
