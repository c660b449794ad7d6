package crawlers

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func gbkBytes(t *testing.T, s string) []byte {
	t.Helper()
	out, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return out
}

func TestDecompressResponse(t *testing.T) {
	plain := []byte("<html><body>第一章 风起</body></html>")

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var fl bytes.Buffer
	fw, err := flate.NewWriter(&fl, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"gzip压缩", "gzip", gz.Bytes()},
		{"gzip已被解压", "gzip", plain},
		{"x-gzip", "x-gzip", gz.Bytes()},
		{"deflate", "deflate", fl.Bytes()},
		{"brotli", "br", br.Bytes()},
		{"大写编码名", "BR", br.Bytes()},
		{"未压缩", "", plain},
		{"identity", "identity", plain},
		{"未知编码原样返回", "zstd", plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decompressResponse(tt.encoding, tt.body)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}
}

func TestDecompressResponseCorrupt(t *testing.T) {
	_, err := decompressResponse("gzip", []byte{0x1f, 0x8b, 0x00, 0x01})
	assert.Error(t, err)
}

func TestDecodeHTML(t *testing.T) {
	text := "第一章 风起青萍之末"
	gbkDoc := append(append([]byte(`<html><head><meta charset="gbk"></head><body>`), gbkBytes(t, text)...), []byte("</body></html>")...)

	tests := []struct {
		name        string
		body        []byte
		contentType string
		forced      string
	}{
		{"meta声明gbk", gbkDoc, "text/html", ""},
		{"Content-Type声明gbk", gbkBytes(t, text), "text/html; charset=gbk", ""},
		{"Content-Type声明gb2312", gbkBytes(t, text), "text/html; charset=gb2312", ""},
		{"强制gbk", gbkBytes(t, text), "", "gbk"},
		{"强制gb18030", gbkBytes(t, text), "text/html; charset=utf-8", "gb18030"},
		{"utf-8", []byte(text), "text/html; charset=utf-8", ""},
		{"强制utf-8", []byte(text), "", "UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeHTML(tt.body, tt.contentType, tt.forced)
			require.NoError(t, err)
			assert.Contains(t, got, text)
		})
	}
}

func TestDecodeHTMLEmptyBody(t *testing.T) {
	got, err := decodeHTML(nil, "text/html; charset=gbk", "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestForcedEncoding(t *testing.T) {
	assert.Equal(t, simplifiedchinese.GBK, forcedEncoding("GBK"))
	assert.Equal(t, simplifiedchinese.GBK, forcedEncoding("gb2312"))
	assert.Equal(t, simplifiedchinese.GB18030, forcedEncoding(" gb18030 "))
	assert.Nil(t, forcedEncoding(""))
	assert.Nil(t, forcedEncoding("auto"))
}
