package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShopifyDetector_Markers(t *testing.T) {
	t.Parallel()

	d := NewShopifyDetector()

	cases := []struct {
		name string
		body string
		want bool
	}{
		{"cdn script", `<script src="https://cdn.shopify.com/s/theme.js"></script>`, true},
		{"theme object", `<script>window.Shopify.theme = {id: 1};</script>`, true},
		{"myshopify domain", `<link href="https://glow.myshopify.com/x">`, true},
		{"cdn shop path", `<img src="//glow.example/cdn/shop/files/logo.png">`, true},
		{"mixed case", `<SCRIPT SRC="HTTPS://CDN.SHOPIFY.COM/a.js"></SCRIPT>`, true},
		{"plain site", `<html><body>Just a website</body></html>`, false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, d.Matches([]byte(tc.body)))
		})
	}
}

func TestShopifyDetector_CustomMarkers(t *testing.T) {
	t.Parallel()

	d := NewShopifyDetector("x-custom-platform")
	require.True(t, d.Matches([]byte(`<meta name="X-Custom-Platform">`)))
	require.False(t, d.Matches([]byte(`<script src="https://cdn.shopify.com/a.js"></script>`)))
}
