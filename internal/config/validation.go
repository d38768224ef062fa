package config

import (
	"errors"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if strings.TrimSpace(c.CachePath) == "" {
		return newFieldError("CachePath", "不能为空")
	}
	if c.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("UpstreamTimeout", "必须大于 0")
	}
	if c.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if c.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}

	if err := validateBaseURL(c.DocsBaseURL); err != nil {
		return err
	}

	return nil
}

func validateBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return newFieldError("DocsBaseURL", "不能为空")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return newFieldError("DocsBaseURL", "不是合法的 URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return newFieldError("DocsBaseURL", "仅支持 http/https")
	}
	if parsed.Host == "" {
		return newFieldError("DocsBaseURL", "缺少主机名")
	}
	return nil
}
