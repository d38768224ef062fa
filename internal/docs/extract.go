package docs

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bodyWrapperSelector 对应 rustdoc 页面中包裹正文的固定元素。
const bodyWrapperSelector = "#rustdoc_body_wrapper"

// extractBody 抽取 rustdoc 正文的纯文本并折叠空白。
// HTML 解析失败或找不到包裹节点时返回 false，由调用方决定降级文案。
func extractBody(r io.Reader) (string, bool) {
	document, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", false
	}

	wrapper := document.Find(bodyWrapperSelector)
	if wrapper.Length() == 0 {
		return "", false
	}

	return strings.Join(strings.Fields(wrapper.Text()), " "), true
}
