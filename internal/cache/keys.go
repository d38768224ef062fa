package cache

import (
	"fmt"
	"strings"

	"github.com/docs-hub/docs-hub/internal/docs"
)

// subKeySeparator 连接版本与页面路径。版本号中不允许出现该分隔符，
// 否则还原时按第一次出现切分会串位。
const subKeySeparator = "::"

// normalizeSubKey 把 (version, path) 编码为分片文件内的字符串键。
func normalizeSubKey(key docs.PageRequest) string {
	return key.Version + subKeySeparator + key.Path
}

// denormalizeSubKey 按第一次出现的分隔符还原 (version, path)。
func denormalizeSubKey(crate, normalized string) (docs.PageRequest, error) {
	version, page, ok := strings.Cut(normalized, subKeySeparator)
	if !ok {
		return docs.PageRequest{}, fmt.Errorf("invalid normalized key %q", normalized)
	}
	return docs.PageRequest{CrateName: crate, Version: version, Path: page}, nil
}
