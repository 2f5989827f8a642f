package bountyapi

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// SealedReportCOSE is a raw COSE_Sign1 message sealing one run.
type SealedReportCOSE []byte

// SealedReportCOSEBase64 is a sealed report in standard base64.
type SealedReportCOSEBase64 string

// SealedReportCOSEURLBase64 is a sealed report in unpadded URL-safe base64.
type SealedReportCOSEURLBase64 string

// SealedReportCOSEGzip is a gzipped sealed report in unpadded URL-safe base64,
// the compact form handed to requesters.
type SealedReportCOSEGzip string

func (s SealedReportCOSE) EncodeBase64() SealedReportCOSEBase64 {
	return SealedReportCOSEBase64(base64.StdEncoding.EncodeToString(s))
}

func (s SealedReportCOSE) EncodeURLSafe() SealedReportCOSEURLBase64 {
	return SealedReportCOSEURLBase64(base64.RawURLEncoding.EncodeToString(s))
}

// CompressGzip gzips the message and encodes it URL-safe without padding.
// The gzip header carries no name or mtime, so output is deterministic.
func (s SealedReportCOSE) CompressGzip() (SealedReportCOSEGzip, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(s); err != nil {
		return "", fmt.Errorf("gzip write: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("gzip close: %w", err)
	}
	return SealedReportCOSEGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

func (s SealedReportCOSEBase64) String() string { return string(s) }

func (s SealedReportCOSEBase64) Decode() (SealedReportCOSE, error) {
	raw, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64: %w", err)
	}
	return SealedReportCOSE(raw), nil
}

// CompressGzip is shorthand for Decode followed by CompressGzip.
func (s SealedReportCOSEBase64) CompressGzip() (SealedReportCOSEGzip, error) {
	raw, err := s.Decode()
	if err != nil {
		return "", err
	}
	return raw.CompressGzip()
}

func (s SealedReportCOSEURLBase64) String() string { return string(s) }

// Decode accepts both padded and unpadded input.
func (s SealedReportCOSEURLBase64) Decode() (SealedReportCOSE, error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(string(s), "="))
	if err != nil {
		return nil, fmt.Errorf("decode COSE base64url: %w", err)
	}
	return SealedReportCOSE(raw), nil
}

func (s SealedReportCOSEGzip) String() string { return string(s) }

func (s SealedReportCOSEGzip) Decompress() (SealedReportCOSE, error) {
	compressed, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(string(s), "="))
	if err != nil {
		return nil, fmt.Errorf("decode base64url: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("read gzip stream: %w", err)
	}
	return SealedReportCOSE(raw), nil
}
