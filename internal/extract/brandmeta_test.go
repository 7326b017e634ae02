package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBrandMetaExtractor_PrefersOGSiteName(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com", `<html><head>
		<meta property="og:site_name" content="Glow Brand">
		<title>Glow Brand | Clean Skincare</title>
		<meta name="description" content="Clean skincare made simple.">
	</head><body></body></html>`)

	meta := NewBrandMetaExtractor().Extract(page)
	require.Equal(t, "Glow Brand", meta.Name)
	require.Equal(t, "Clean skincare made simple.", meta.Description)
}

func TestBrandMetaExtractor_TitleFallbackTrimsSuffix(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com", `<html><head>
		<title>Glow Brand | Home of Serums</title>
		<meta property="og:description" content="From the og tag.">
	</head><body></body></html>`)

	meta := NewBrandMetaExtractor().Extract(page)
	require.Equal(t, "Glow Brand", meta.Name)
	require.Equal(t, "From the og tag.", meta.Description)
}

func TestBrandMetaExtractor_HostnameFallback(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com", `<html><head></head><body></body></html>`)

	meta := NewBrandMetaExtractor().Extract(page)
	require.Equal(t, "shop.example.com", meta.Name)
	require.Empty(t, meta.Description)
}
