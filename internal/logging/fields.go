package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 crate/版本/页面/命中状态字段，供文档请求日志复用。
func RequestFields(crate, version, page string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"crate":     crate,
		"version":   version,
		"page":      page,
		"cache_hit": cacheHit,
	}
}
