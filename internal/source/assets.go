package source

import "strings"

// Keyword maps a lowercase title keyword to the asset it refers to.
type Keyword struct {
	Word  string
	Asset string
}

// CryptoKeywords tags crypto headlines.
var CryptoKeywords = []Keyword{
	{"bitcoin", "BTC"}, {"btc", "BTC"},
	{"ethereum", "ETH"}, {"eth", "ETH"},
	{"solana", "SOL"}, {"sol", "SOL"},
	{"bnb", "BNB"}, {"binance", "BNB"},
	{"xrp", "XRP"}, {"ripple", "XRP"},
}

// MarketKeywords tags general market headlines.
var MarketKeywords = []Keyword{
	{"bitcoin", "BTC"}, {"btc", "BTC"},
	{"ethereum", "ETH"}, {"eth", "ETH"},
	{"tesla", "TSLA"}, {"apple", "AAPL"}, {"microsoft", "MSFT"},
	{"s&p", "SP500"}, {"nasdaq", "NASDAQ"},
	{"euro", "EURUSD"}, {"dollar", "USD"},
	{"gold", "GOLD"}, {"oil", "CRUDE_OIL"},
}

// DetectAsset returns the asset of the first keyword found in title as a
// whole word, or fallback when none matches. Keywords are tried in order.
func DetectAsset(title string, keywords []Keyword, fallback string) string {
	lower := strings.ToLower(title)
	for _, kw := range keywords {
		if containsWord(lower, kw.Word) {
			return kw.Asset
		}
	}
	return fallback
}

// containsWord reports whether word occurs in s delimited by non-alphanumerics.
func containsWord(s, word string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], word)
		if j < 0 {
			return false
		}
		start := i + j
		end := start + len(word)
		if (start == 0 || !isAlnum(s[start-1])) && (end == len(s) || !isAlnum(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}
