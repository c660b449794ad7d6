package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/RecoveryAshes/novelcrawl/internal/utils"
	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// decompressResponse 根据Content-Encoding解压响应体
// gzip响应可能已被HTTP客户端解压, 通过魔数判断是否需要再次处理
func decompressResponse(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "gzip", "x-gzip":
		if len(body) < 2 || body[0] != 0x1f || body[1] != 0x8b {
			return body, nil
		}
		reader, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip解压失败: %w", err)
		}
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip读取失败: %w", err)
		}
		return decompressed, nil

	case "deflate":
		reader := flate.NewReader(bytes.NewReader(body))
		defer reader.Close()

		decompressed, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("deflate读取失败: %w", err)
		}
		return decompressed, nil

	case "br":
		decompressed, err := io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("brotli读取失败: %w", err)
		}
		return decompressed, nil

	case "", "identity":
		return body, nil

	default:
		utils.Warnf("未知的Content-Encoding: %s", contentEncoding)
		return body, nil
	}
}

// forcedEncoding 返回配置中强制指定的编码, 自动检测时返回nil
func forcedEncoding(name string) encoding.Encoding {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gbk", "gb2312":
		return simplifiedchinese.GBK
	case "gb18030":
		return simplifiedchinese.GB18030
	default:
		return nil
	}
}

// decodeHTML 将页面转换为UTF-8
// 未强制指定编码时, 按 Content-Type、<meta charset> 和内容嗅探的顺序检测
func decodeHTML(body []byte, contentType, forced string) (string, error) {
	if len(body) == 0 {
		return "", nil
	}
	name := strings.ToLower(strings.TrimSpace(forced))
	if name == "utf-8" || name == "utf8" {
		return string(body), nil
	}

	var reader io.Reader
	if enc := forcedEncoding(name); enc != nil {
		reader = transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
	} else {
		r, err := charset.NewReader(bytes.NewReader(body), contentType)
		if err != nil {
			return "", fmt.Errorf("检测页面编码失败: %w", err)
		}
		reader = r
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("页面编码转换失败: %w", err)
	}
	return string(decoded), nil
}
