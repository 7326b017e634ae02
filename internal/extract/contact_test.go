package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContactExtractor_EmailsAndPhones(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com/pages/contact", `<html><body>
		<p>Write to Support@Example.com or call (415) 555-0123 ext nothing.</p>
		<a href="mailto:hello@example.com?subject=Hi">Email us</a>
		<a href="tel:+1-415-555-0199">Call us</a>
	</body></html>`)

	contact := NewContactExtractor().Extract(page)
	require.Equal(t, []string{"hello@example.com", "support@example.com"}, contact.Emails)
	require.Contains(t, contact.Phones, "4155550123")
	require.Contains(t, contact.Phones, "+14155550199")
}

func TestContactExtractor_RejectsShortDigitRuns(t *testing.T) {
	t.Parallel()

	page := mustPage(t, "https://shop.example.com", `<html><body>
		<p>Order #123456 shipped in 2024. Call 555-0123.</p>
	</body></html>`)

	contact := NewContactExtractor().Extract(page)
	require.Empty(t, contact.Phones)
}

func TestContactExtractor_DeduplicatesAcrossPages(t *testing.T) {
	t.Parallel()

	home := mustPage(t, "https://shop.example.com", `<html><body><p>support@example.com</p></body></html>`)
	contactPage := mustPage(t, "https://shop.example.com/pages/contact", `<html><body>
		<a href="mailto:support@example.com">support@example.com</a>
	</body></html>`)

	contact := NewContactExtractor().Extract(home, contactPage)
	require.Equal(t, []string{"support@example.com"}, contact.Emails)
}

func TestContactExtractor_EmptyPages(t *testing.T) {
	t.Parallel()

	contact := NewContactExtractor().Extract(nil)
	require.Empty(t, contact.Emails)
	require.Empty(t, contact.Phones)
}
