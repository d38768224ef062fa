package docs

import "fmt"

// PageRequest 唯一标识一个文档页面（crate + 版本 + 页面路径）。
// 三个字段全部相等才视为同一页面，可直接作为 map key 使用。
type PageRequest struct {
	CrateName string `json:"crate_name"`
	Version   string `json:"version"`
	Path      string `json:"path"`
}

// String 输出便于日志检索的紧凑形式。
func (p PageRequest) String() string {
	return fmt.Sprintf("%s/%s/%s", p.CrateName, p.Version, p.Path)
}

// PageContent 承载抽取后的纯文本正文。值语义，读取方各自持有拷贝。
type PageContent struct {
	Content string `json:"content"`
}
