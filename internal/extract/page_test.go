package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageAnchors_ResolvesRelativeHrefs(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com/pages/contact", `<html><body>
		<a href="/products/serum">  Serum
		  Deluxe </a>
		<a href="../about">About</a>
		<a href="https://other.example.com/x">External</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="javascript:void(0)">Noop</a>
		<a href="#top">Top</a>
	</body></html>`)

	anchors := page.Anchors()
	require.Len(t, anchors, 4)
	require.Equal(t, Anchor{Label: "Serum Deluxe", Href: "https://shop.example.com/products/serum"}, anchors[0])
	require.Equal(t, "https://shop.example.com/about", anchors[1].Href)
	require.Equal(t, "https://other.example.com/x", anchors[2].Href)
	require.Equal(t, "mailto:hi@example.com", anchors[3].Href)
}

func TestCleanText(t *testing.T) {
	t.Parallel()

	require.Equal(t, "a b c", CleanText("  a \n\t b  c  "))
	require.Equal(t, "", CleanText("   "))
}

func TestProductHandle(t *testing.T) {
	t.Parallel()

	require.Equal(t, "serum", productHandle("https://shop.example.com/products/serum"))
	require.Equal(t, "serum", productHandle("https://shop.example.com/collections/all/products/serum?variant=1"))
	require.Equal(t, "serum", productHandle("https://shop.example.com/products/serum/reviews"))
	require.Equal(t, "", productHandle("https://shop.example.com/pages/about"))
}
