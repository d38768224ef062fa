package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/docs-hub/docs-hub/internal/docs"
)

// shardExt 是分片文件扩展名；目录中其它扩展名的文件既不读取也不清理。
const shardExt = ".json"

// shardTempPrefix 标记写入途中的临时文件。进程在 rename 之前崩溃会留下
// 这类文件，下一次 Save 的清理阶段负责回收。
const shardTempPrefix = ".shard-"

// shardData 是单个 crate 分片文件的磁盘结构：normalized key -> 正文。
type shardData map[string]docs.PageContent

// Save 按 crate 分片落盘。快照在一次读锁内完成，锁外执行所有文件 I/O，
// 因此与并发 Insert 之间没有顺序保证，漏掉的写入由下一次 Save 兜底。
func (c *MemoryCache) Save(ctx context.Context) error {
	shards := c.snapshotShards()

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	written := make(map[string]struct{}, len(shards))
	var errs []error
	for crate, data := range shards {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		shardPath := filepath.Join(c.dir, crate+shardExt)
		if err := writeShard(shardPath, data); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_save",
				"crate":  crate,
			}).Error("shard_write_failed")
			errs = append(errs, fmt.Errorf("write shard %s: %w", crate, err))
			continue
		}
		written[shardPath] = struct{}{}
		c.logger.WithFields(logrus.Fields{
			"action":  "cache_save",
			"crate":   crate,
			"entries": len(data),
		}).Debug("shard_written")
	}

	if err := c.removeStaleShards(ctx, written); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load 扫描缓存目录并全量替换内存表。目录缺失按空表处理；路径被普通文件
// 占用时沿用历史行为，静默重置为空缓存而不报错。
func (c *MemoryCache) Load(ctx context.Context) error {
	info, err := os.Stat(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.WithFields(logrus.Fields{
			"action": "cache_load",
			"dir":    c.dir,
		}).Info("cache_dir_missing")
		c.replaceAll(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat cache dir: %w", err)
	}
	if !info.IsDir() {
		c.logger.WithFields(logrus.Fields{
			"action": "cache_load",
			"dir":    c.dir,
		}).Error("cache_path_not_directory")
		c.replaceAll(nil)
		return nil
	}

	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("read cache dir: %w", err)
	}

	loaded := make(map[docs.PageRequest]docs.PageContent)
	var files, items int
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != shardExt {
			continue
		}
		crate := strings.TrimSuffix(entry.Name(), shardExt)
		count, ok := c.loadShard(filepath.Join(c.dir, entry.Name()), crate, loaded)
		if ok {
			files++
			items += count
		}
	}

	c.replaceAll(loaded)
	c.logger.WithFields(logrus.Fields{
		"action": "cache_load",
		"dir":    c.dir,
		"files":  files,
		"items":  items,
	}).Info("cache_loaded")
	return nil
}

// snapshotShards 在一次读锁内复制整张表并按 crate 分组，避免持锁做 I/O。
func (c *MemoryCache) snapshotShards() map[string]shardData {
	c.mu.RLock()
	defer c.mu.RUnlock()

	shards := make(map[string]shardData)
	for key, content := range c.entries {
		shard := shards[key.CrateName]
		if shard == nil {
			shard = make(shardData)
			shards[key.CrateName] = shard
		}
		shard[normalizeSubKey(key)] = content
	}
	return shards
}

// removeStaleShards 删除本轮未写入的 *.json 分片，并回收中断 Save 留下的
// 临时文件。其它非 JSON 文件一律不动。
func (c *MemoryCache) removeStaleShards(ctx context.Context, written map[string]struct{}) error {
	dirEntries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("scan cache dir: %w", err)
	}

	var errs []error
	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), shardTempPrefix) {
			tmpPath := filepath.Join(c.dir, entry.Name())
			if err := os.Remove(tmpPath); err != nil {
				c.logger.WithError(err).WithFields(logrus.Fields{
					"action": "cache_save",
					"file":   tmpPath,
				}).Warn("shard_temp_remove_failed")
			} else {
				c.logger.WithFields(logrus.Fields{
					"action": "cache_save",
					"file":   tmpPath,
				}).Info("shard_temp_removed")
			}
			continue
		}
		if filepath.Ext(entry.Name()) != shardExt {
			continue
		}
		shardPath := filepath.Join(c.dir, entry.Name())
		if _, ok := written[shardPath]; ok {
			continue
		}
		if err := os.Remove(shardPath); err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_save",
				"file":   shardPath,
			}).Warn("stale_shard_remove_failed")
			errs = append(errs, fmt.Errorf("remove stale shard %s: %w", entry.Name(), err))
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"action": "cache_save",
			"file":   shardPath,
		}).Info("stale_shard_removed")
	}
	return errors.Join(errs...)
}

// loadShard 读取单个分片。空文件、JSON 解析失败与坏键只记日志，不上抛。
func (c *MemoryCache) loadShard(shardPath, crate string, into map[docs.PageRequest]docs.PageContent) (int, bool) {
	raw, err := os.ReadFile(shardPath)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_load",
			"file":   shardPath,
		}).Error("shard_read_failed")
		return 0, false
	}
	if strings.TrimSpace(string(raw)) == "" {
		c.logger.WithFields(logrus.Fields{
			"action": "cache_load",
			"file":   shardPath,
		}).Warn("shard_empty_skipped")
		return 0, false
	}

	var data shardData
	if err := json.Unmarshal(raw, &data); err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_load",
			"file":   shardPath,
		}).Error("shard_decode_failed")
		return 0, false
	}

	count := 0
	for normalized, content := range data {
		key, err := denormalizeSubKey(crate, normalized)
		if err != nil {
			c.logger.WithError(err).WithFields(logrus.Fields{
				"action": "cache_load",
				"file":   shardPath,
				"key":    normalized,
			}).Error("shard_key_skipped")
			continue
		}
		into[key] = content
		count++
	}
	return count, true
}

// writeShard 先写同目录临时文件再 rename，分片要么是旧内容要么是完整新内容。
func writeShard(shardPath string, data shardData) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(shardPath), shardTempPrefix+"*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(payload)
	closeErr := tmp.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, shardPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
