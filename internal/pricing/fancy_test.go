package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/superauth/internal/config"
)

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		BasePrice:        10000,
		RepeatedPrice:    5000,
		SequentialPrice:  4000,
		PalindromePrice:  6000,
		AlternatingPrice: 4500,
		PremiumPrice:     20000,
		SpecialPrice:     50000,
	}
}

func TestDetectorQuote_Plain(t *testing.T) {
	d := NewDetector(testPricing())
	quote := d.Quote("KQX582")
	require.False(t, quote.Fancy)
	require.Empty(t, quote.FancyType)
	require.EqualValues(t, 10000, quote.TotalPrice)
}

func TestDetectorQuote_Repeated(t *testing.T) {
	d := NewDetector(testPricing())
	quote := d.Quote("AAAX12")
	require.True(t, quote.Fancy)
	require.Equal(t, FancyTypeRepeated, quote.FancyType)
	require.EqualValues(t, 5000, quote.FancyPrice)
	require.EqualValues(t, 15000, quote.TotalPrice)
}

func TestDetectorQuote_Sequential(t *testing.T) {
	d := NewDetector(testPricing())
	for _, name := range []string{"ABCQ17", "XQZ890"} {
		quote := d.Quote(name)
		require.True(t, quote.Fancy, name)
		require.Equal(t, FancyTypeSequential, quote.FancyType, name)
	}
	// descending runs are not sequential
	require.False(t, d.Quote("CBAQ75").Fancy)
}

func TestDetectorQuote_Palindrome(t *testing.T) {
	d := NewDetector(testPricing())
	quote := d.Quote("XQZZQX")
	require.True(t, quote.Fancy)
	require.Equal(t, FancyTypePalindrome, quote.FancyType)
}

func TestDetectorQuote_Alternating(t *testing.T) {
	d := NewDetector(testPricing())
	quote := d.Quote("XQ7XQ7")
	require.True(t, quote.Fancy)
	require.Equal(t, FancyTypeAlternating, quote.FancyType)
}

func TestDetectorQuote_Premium(t *testing.T) {
	d := NewDetector(testPricing())
	quote := d.Quote("VIP842")
	require.True(t, quote.Fancy)
	require.Equal(t, FancyTypePremium, quote.FancyType)
	require.EqualValues(t, 30000, quote.TotalPrice)
}

func TestDetectorQuote_SpecialOnMultipleMatches(t *testing.T) {
	d := NewDetector(testPricing())
	// premium word plus a repeated run
	quote := d.Quote("GOD777")
	require.True(t, quote.Fancy)
	require.Equal(t, FancyTypeSpecial, quote.FancyType)
	require.EqualValues(t, 50000, quote.FancyPrice)
}

func TestDetectorQuote_CaseInsensitive(t *testing.T) {
	d := NewDetector(testPricing())
	require.Equal(t, FancyTypePremium, d.Quote("king42X").FancyType)
}
