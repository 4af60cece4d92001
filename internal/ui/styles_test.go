package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageHelpersKeepText(t *testing.T) {
	cases := map[string]func(string) string{
		"✓":  Success,
		"⚠":  Warn,
		"✗":  Err,
		"ℹ":  Info,
		"💡": Hint,
	}
	for prefix, fn := range cases {
		out := fn("brewing")
		assert.Contains(t, out, prefix)
		assert.Contains(t, out, "brewing")
	}
}

func TestTruncateAddr(t *testing.T) {
	assert.Equal(t, "0xf39F…2266", TruncateAddr("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"))
	assert.Equal(t, "0x1234", TruncateAddr("0x1234"))
}

func TestPadR(t *testing.T) {
	assert.Equal(t, "hi        ", padR("hi", 10))
	assert.Equal(t, "hello", padR("hello", 5))
	assert.Equal(t, "toolongstring", padR("toolongstring", 5))
	assert.Equal(t, "    ", padR("", 4))
}

func TestPadRIgnoresANSI(t *testing.T) {
	styled := StyleSuccess.Render("ok")
	out := padR(styled, 6)
	assert.True(t, strings.HasPrefix(out, styled))
	assert.True(t, strings.HasSuffix(out, "    "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "thank…", truncate("thank you", 6))
	assert.Equal(t, "☕☕…", truncate("☕☕☕☕", 3))
}

func TestBannerHasVersion(t *testing.T) {
	assert.Contains(t, Banner("1.2.3"), "v1.2.3")
}
