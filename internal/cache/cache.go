package cache

import (
	"context"

	"github.com/docs-hub/docs-hub/internal/docs"
)

// Cache 定义文档缓存的能力边界：内存操作永不失败，Save/Load 只在文件系统层面报错。
// 调用方先查缓存，未命中再走上游抓取并 Insert 回写。
type Cache interface {
	// Get 返回条目的一份拷贝；不存在时第二个返回值为 false。
	Get(key docs.PageRequest) (docs.PageContent, bool)

	// Insert 插入或覆盖条目，并发写同一 key 时后写者获胜。
	Insert(key docs.PageRequest, value docs.PageContent)

	// Contains 只做存在性判断，不复制正文。
	Contains(key docs.PageRequest) bool

	// Clear 原子清空整张表。
	Clear()

	// Len 返回当前条目总数。
	Len() int

	// Stats 返回每个 crate 对应的条目数，供诊断接口使用。
	Stats() map[string]int

	// Save 将当前表的快照写入缓存目录：每个 crate 一个 <crate>.json 分片，
	// 并删除不再对应任何内存条目的旧分片。单个文件失败不回滚已写入的文件，
	// 所有文件处理完后统一返回聚合错误。
	Save(ctx context.Context) error

	// Load 从缓存目录全量重建表。目录缺失按空表处理；单个文件或条目损坏
	// 跳过并记录日志，只有目录本身不可枚举才返回错误。
	Load(ctx context.Context) error
}
