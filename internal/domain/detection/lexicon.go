package detection

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Lexicon category names. A category missing from a loaded lexicon degrades to
// an empty list, never to a failure.
const (
	CatPhishingHigh      = "phishing_high"
	CatPhishingMedium    = "phishing_medium"
	CatFinancial         = "financial_context"
	CatFileExtensions    = "file_extensions"
	CatSuspiciousDomains = "suspicious_domains"
	CatInjectionPatterns = "injection_patterns"
	CatXSSPatterns       = "xss_patterns"
	CatScamRomance       = "scam_romance"
	CatScamEmergency     = "scam_emergency"
	CatScamLottery       = "scam_lottery"
	CatScamInvestment    = "scam_investment"
	CatScamGovernment    = "scam_government"
	CatURLPatterns       = "url_patterns"
	CatShorteners        = "link_shorteners"
	CatSocialEngineering = "social_engineering"
	CatUrgencyWords      = "urgency_words"
	CatManipulativeEmoji = "manipulative_emoji"
)

// Lexicon is an immutable, versioned collection of risk indicators grouped by
// category. It is loaded once at startup and shared read-only by all scans.
type Lexicon struct {
	Version  string
	lists    map[string][]string
	patterns map[string][]*regexp.Regexp
}

// List returns the keyword list for a category, or nil if the category is absent
func (l *Lexicon) List(category string) []string {
	return l.lists[category]
}

// Patterns returns the compiled regular expressions for a category
func (l *Lexicon) Patterns(category string) []*regexp.Regexp {
	return l.patterns[category]
}

// lexiconFile is the on-disk YAML shape of a lexicon
type lexiconFile struct {
	Version    string              `yaml:"version"`
	Categories map[string][]string `yaml:"categories"`
	Patterns   map[string][]string `yaml:"patterns"`
}

// LoadLexicon reads a versioned lexicon from a YAML file. Invalid regular
// expressions are skipped with a warning so one bad pattern cannot take the
// whole lexicon down.
func LoadLexicon(path string, logger *slog.Logger) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon file: %w", err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon file: %w", err)
	}

	lex := &Lexicon{
		Version:  file.Version,
		lists:    file.Categories,
		patterns: make(map[string][]*regexp.Regexp),
	}
	if lex.lists == nil {
		lex.lists = map[string][]string{}
	}

	for category, exprs := range file.Patterns {
		for _, expr := range exprs {
			re, err := regexp.Compile(expr)
			if err != nil {
				logger.Warn("Skipping invalid lexicon pattern",
					"category", category, "pattern", expr, "error", err)
				continue
			}
			lex.patterns[category] = append(lex.patterns[category], re)
		}
	}

	logger.Info("Loaded lexicon", "version", lex.Version,
		"categories", len(lex.lists), "pattern_categories", len(lex.patterns))
	return lex, nil
}

// DefaultLexicon returns the built-in indicator collection used when no
// lexicon file is configured or the configured one fails to load
func DefaultLexicon() *Lexicon {
	lex := &Lexicon{
		Version: "builtin-1",
		lists: map[string][]string{
			CatPhishingHigh: {
				"verify your account",
				"account has been suspended",
				"confirm your password",
				"unusual activity detected",
				"your account will be terminated",
				"update your billing information",
				"login to avoid suspension",
			},
			CatPhishingMedium: {
				"click the link below",
				"click here to verify",
				"security alert",
				"password expired",
				"confirm your identity",
				"reactivate your account",
			},
			CatFinancial: {
				"credit card number",
				"bank account number",
				"social security number",
				"routing number",
				"wire transfer",
				"western union",
			},
			CatFileExtensions: {
				".exe", ".scr", ".bat", ".cmd", ".vbs", ".jar", ".ps1", ".apk", ".msi",
			},
			CatSuspiciousDomains: {
				"grabify.link", "iplogger.org", "2no.co", "yip.su", "iplis.ru",
			},
			CatScamRomance: {
				"my soulmate",
				"true love of my life",
				"need money for a ticket",
				"stranded abroad",
				"waiting to meet you",
			},
			CatScamEmergency: {
				"emergency surgery",
				"hospital bill",
				"family emergency",
				"need money urgently",
				"stuck at the airport",
			},
			CatScamLottery: {
				"you have won",
				"lottery winner",
				"claim your prize",
				"congratulations you won",
				"lucky draw",
			},
			CatScamInvestment: {
				"guaranteed returns",
				"double your money",
				"risk-free investment",
				"crypto giveaway",
				"once in a lifetime investment",
			},
			CatScamGovernment: {
				"irs agent",
				"tax refund pending",
				"arrest warrant",
				"social security administration",
				"customs clearance fee",
			},
			CatShorteners: {
				"bit.ly", "tinyurl.com", "goo.gl", "t.co", "is.gd", "ow.ly", "cutt.ly", "rb.gy",
			},
			CatSocialEngineering: {
				"don't tell anyone",
				"keep this between us",
				"you can trust me",
				"this is confidential",
				"act before it's too late",
				"i need your help urgently",
			},
			CatUrgencyWords: {
				"urgent", "immediately", "asap", "act now", "expires soon",
				"final notice", "last chance", "right away",
			},
			CatManipulativeEmoji: {
				"😱", "🚨", "⚠️", "💰", "🤑", "🎁", "🔥", "❗", "‼️", "💸", "🎉",
			},
		},
		patterns: map[string][]*regexp.Regexp{
			CatInjectionPatterns: {
				regexp.MustCompile(`(?i)union\s+select`),
				regexp.MustCompile(`(?i)drop\s+table`),
				regexp.MustCompile(`(?i)insert\s+into\s+\w+`),
				regexp.MustCompile(`(?i)('|%27)\s*or\s+('|%27)?1('|%27)?\s*=\s*('|%27)?1`),
				regexp.MustCompile(`(?i)(;|\|\||&&)\s*(rm|curl|wget|nc|bash|sh)\s`),
			},
			CatXSSPatterns: {
				regexp.MustCompile(`(?i)<script[^>]*>`),
				regexp.MustCompile(`(?i)javascript:`),
				regexp.MustCompile(`(?i)onerror\s*=`),
				regexp.MustCompile(`(?i)onload\s*=`),
				regexp.MustCompile(`(?i)document\.cookie`),
			},
			CatURLPatterns: {
				// Raw IP address instead of hostname
				regexp.MustCompile(`https?://\d{1,3}(\.\d{1,3}){3}`),
				// Credential-harvesting keywords on throwaway TLDs
				regexp.MustCompile(`(?i)https?://\S*(login|verify|secure|account)\S*\.(tk|ml|ga|cf|gq)`),
				// Punycode hostnames used for homograph attacks
				regexp.MustCompile(`(?i)https?://\S*xn--`),
				regexp.MustCompile(`(?i)data:text/html`),
			},
		},
	}
	return lex
}
