package bountyapi

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestSealedReportCOSE_EncodeBase64(t *testing.T) {
	sealed := SealedReportCOSE([]byte("mock-sealed-report"))

	encoded := sealed.EncodeBase64()
	check.NotEqual(t, "", encoded)

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, sealed, decoded)
}

func TestSealedReportCOSE_EncodeURLSafe(t *testing.T) {
	sealed := SealedReportCOSE([]byte("mock-sealed-report-for-url-encoding"))

	encoded := sealed.EncodeURLSafe()
	check.False(t, strings.Contains(encoded.String(), "="))

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, sealed, decoded)
}

func TestSealedReportCOSE_CompressGzip(t *testing.T) {
	sealed := SealedReportCOSE([]byte("mock-sealed-report-for-compression-testing"))

	compressed, err := sealed.CompressGzip()
	check.Nil(t, err)

	for _, char := range compressed.String() {
		valid := (char >= 'A' && char <= 'Z') ||
			(char >= 'a' && char <= 'z') ||
			(char >= '0' && char <= '9') ||
			char == '-' || char == '_'
		check.True(t, valid)
	}

	decompressed, err := compressed.Decompress()
	check.Nil(t, err)
	check.Equal(t, sealed, decompressed)

	again, err := sealed.CompressGzip()
	check.Nil(t, err)
	check.Equal(t, compressed, again)
}

func TestSealedReportCOSEBase64_Decode(t *testing.T) {
	tests := []struct {
		name    string
		input   SealedReportCOSEBase64
		wantErr bool
	}{
		{name: "valid base64", input: "bW9jay1zZWFsZWQtcmVwb3J0"},
		{name: "illegal characters", input: "not-valid-base64!!!@@@", wantErr: true},
		{name: "wrong padding", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.input.Decode()
			if tt.wantErr {
				check.NotNil(t, err)
				check.True(t, strings.Contains(err.Error(), "decode COSE base64"))
				check.Nil(t, result)
			} else {
				check.Nil(t, err)
				check.Equal(t, "mock-sealed-report", string(result))
			}
		})
	}
}

func TestSealedReportCOSEBase64_CompressGzip(t *testing.T) {
	b64 := SealedReportCOSE([]byte("payload-for-base64-to-gzip")).EncodeBase64()

	compressed, err := b64.CompressGzip()
	check.Nil(t, err)

	decompressed, err := compressed.Decompress()
	check.Nil(t, err)
	check.Equal(t, b64, decompressed.EncodeBase64())

	_, err = SealedReportCOSEBase64("abc").CompressGzip()
	check.NotNil(t, err)
}

func TestSealedReportCOSEURLBase64_Decode(t *testing.T) {
	tests := []struct {
		input    SealedReportCOSEURLBase64
		expected string
	}{
		{"YWJj", "abc"},
		{"dGVzdA", "test"},
		{"dGVzdA==", "test"},
		{"dGVzdGluZw", "testing"},
	}
	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			result, err := tt.input.Decode()
			check.Nil(t, err)
			check.Equal(t, tt.expected, string(result))
		})
	}
}

func TestSealedReportCOSEGzip_Decompress_Invalid(t *testing.T) {
	tests := []struct {
		name           string
		input          SealedReportCOSEGzip
		errorSubstring string
	}{
		{name: "invalid base64url", input: "!!!invalid!!!", errorSubstring: "decode base64url"},
		{name: "valid base64 but not gzip", input: "bW9jaw", errorSubstring: "gzip"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.input.Decompress()
			check.NotNil(t, err)
			check.Nil(t, result)
			check.True(t, strings.Contains(err.Error(), tt.errorSubstring))
		})
	}
}
