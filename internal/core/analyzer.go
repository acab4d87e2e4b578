package core

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// eduDomains mark senders from educational institutions. Matched as
// substrings of the sender domain.
var eduDomains = []string{".edu", ".ac.uk", ".edu.au", ".ac.nz", ".edu.sg"}

// urgencyWords in the subject raise priority unless the email has
// already been flagged as spam.
var urgencyWords = []string{"urgent", "important", "deadline", "due", "reminder", "don't forget", "action required"}

// suspiciousPhrases are classic spam markers. Each occurrence adds to
// the structural sub-score independently.
var suspiciousPhrases = []string{
	"free money", "you won", "lottery", "million dollars", "nigerian prince",
	"wire transfer", "urgent attention", "claim your prize",
}

// suspiciousTLDs flag link targets commonly used by throwaway campaigns.
var suspiciousTLDs = []string{".xyz", ".info", ".tk", ".ml", ".ga"}

// portalPhrases in the body identify university notices regardless of
// keyword profiles.
var portalPhrases = []string{"check the university portal", "portal for more information", "login to the portal"}

// categoryRules are checked in order; the first match wins.
var categoryRules = []struct {
	category Category
	keywords []string
}{
	{CategoryAcademic, []string{"assignment", "homework", "course", "lecture", "class", "professor", "syllabus"}},
	{CategoryAdministrative, []string{"tuition", "registration", "enrollment", "transcript", "admin", "policy"}},
	{CategoryEvent, []string{"event", "seminar", "workshop", "conference", "ceremony", "meeting"}},
	{CategoryDeadline, []string{"deadline", "due date", "by tomorrow", "by friday", "submission"}},
	{CategoryPersonal, []string{"hello", "hi", "hey", "personal", "question", "regarding your"}},
}

var (
	wordPattern = regexp.MustCompile(`\w+`)
	urlPattern  = regexp.MustCompile(`https?://(?:[-\w.]|%[0-9a-fA-F]{2})+`)
)

// minKeywordMatches is how many distinct profile keywords must appear in
// an email before the keyword rules fire.
const minKeywordMatches = 3

// Analyzer scores emails for spam likelihood and importance. It is safe
// for concurrent use: profile snapshots are read-only and all scoring
// state lives on the stack of a single call.
type Analyzer struct {
	profiles ProfileSource
	logger   *zap.Logger
}

// NewAnalyzer creates an analyzer calibrated by the given profile source.
func NewAnalyzer(profiles ProfileSource, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		profiles: profiles,
		logger:   logger,
	}
}

// verdictBuilder accumulates the staged scoring state. Each apply*
// method corresponds to one pipeline step and runs exactly once, in
// order; later steps may override flags set by earlier ones.
type verdictBuilder struct {
	sender  string
	subject string
	body    string

	domain   string
	combined string
	tokens   []string

	policy   *ScoringPolicy
	profiles *Profiles

	isSpam             bool
	isUniversityNotice bool
	category           Category
	score              float64

	spamIndicators       []string
	importanceIndicators []string
}

// AnalyzeEmail analyzes an email and returns a structured verdict.
// Deterministic given identical inputs and an identical profile
// snapshot; it performs no I/O and has no error path.
func (a *Analyzer) AnalyzeEmail(sender, subject, body string, policy *ScoringPolicy) *Verdict {
	b := &verdictBuilder{
		sender:   sender,
		subject:  subject,
		body:     body,
		domain:   senderDomain(sender),
		combined: strings.ToLower(subject + " " + body),
		policy:   policy,
		profiles: a.profiles.Profiles(),
		category: CategoryOther,
	}
	b.tokens = tokenize(b.combined)

	b.applyPolicy()
	b.applyDomainReputation()
	b.applyEducationalBonus()
	b.applyCategory()
	b.applyUniversityKeywords()
	b.applyCategoryBonus()
	b.applySpamKeywords()
	b.applyStructuralHeuristics()
	b.applyUrgency()
	b.applyPortalPhrases()
	b.applyUniversityLock()

	verdict := b.build()

	a.logger.Debug("Email analyzed",
		zap.String("sender", sender),
		zap.String("category", string(verdict.Category)),
		zap.Float64("priority_score", verdict.PriorityScore),
		zap.Bool("is_spam", verdict.IsSpam),
		zap.Bool("is_important", verdict.IsImportant))

	return verdict
}

// applyPolicy runs the trusted check and then the blocked check. Both
// loops always run: a sender matching both ends up spam-flagged with the
// blocked score, since the blocked check runs second.
func (b *verdictBuilder) applyPolicy() {
	if b.policy == nil {
		return
	}
	senderLower := strings.ToLower(b.sender)

	for _, trusted := range b.policy.TrustedSenders {
		if trusted != "" && strings.Contains(senderLower, strings.ToLower(trusted)) {
			b.score = 0.9
			b.importanceIndicators = append(b.importanceIndicators,
				fmt.Sprintf("Sender %s is in your trusted senders", b.sender))
		}
	}
	for _, blocked := range b.policy.BlockedSenders {
		if blocked != "" && strings.Contains(senderLower, strings.ToLower(blocked)) {
			b.isSpam = true
			b.score = 0.1
			b.spamIndicators = append(b.spamIndicators,
				fmt.Sprintf("Sender %s is in your blocked senders", b.sender))
		}
	}
}

func (b *verdictBuilder) applyDomainReputation() {
	if _, known := b.profiles.SpamDomains[b.domain]; known {
		b.isSpam = true
		b.score -= 0.4
		b.spamIndicators = append(b.spamIndicators,
			fmt.Sprintf("Sender domain %s is known for spam emails", b.domain))
	}
}

func (b *verdictBuilder) applyEducationalBonus() {
	for _, edu := range eduDomains {
		if strings.Contains(b.domain, edu) {
			b.score += 0.5
			b.importanceIndicators = append(b.importanceIndicators,
				fmt.Sprintf("Sender from educational domain: %s", b.domain))
			return
		}
	}
}

func (b *verdictBuilder) applyCategory() {
	for _, rule := range categoryRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(b.combined, keyword) {
				b.category = rule.category
				return
			}
		}
	}
}

// applyUniversityKeywords detects notices by keyword overlap with the
// university profile. Three distinct matches are required, so an
// untrained (empty) profile can never fire this rule.
func (b *verdictBuilder) applyUniversityKeywords() {
	matches := matchKeywords(b.tokens, b.profiles.UniversityKeywords)
	if len(matches) < minKeywordMatches {
		return
	}
	b.isUniversityNotice = true
	b.score += 0.3
	b.importanceIndicators = append(b.importanceIndicators, "University notice detected based on content")

	if !isImportantCategory(b.category) {
		b.category = CategoryAdministrative
	}
}

func (b *verdictBuilder) applyCategoryBonus() {
	if isImportantCategory(b.category) {
		b.score += 0.3
		b.importanceIndicators = append(b.importanceIndicators,
			fmt.Sprintf("Important category: %s", b.category))
	}
}

func (b *verdictBuilder) applySpamKeywords() {
	matches := matchKeywords(b.tokens, b.profiles.SpamKeywords)
	if len(matches) < minKeywordMatches {
		return
	}
	b.score -= 0.3
	shown := matches
	if len(shown) > 3 {
		shown = shown[:3]
	}
	b.spamIndicators = append(b.spamIndicators,
		fmt.Sprintf("Spam-related content detected: '%s...'", strings.Join(shown, ", ")))
}

// applyStructuralHeuristics accumulates an independent sub-score from
// message shape alone. The sub-score gates the spam flag; it is never
// added to the priority score, only subtracted when the gate trips.
func (b *verdictBuilder) applyStructuralHeuristics() {
	var subScore float64

	if strings.Count(b.subject, "!") > 2 {
		subScore += 0.1
	}
	if isAllUpper(b.subject) && len(b.subject) > 10 {
		subScore += 0.2
	}
	for _, phrase := range suspiciousPhrases {
		if strings.Contains(b.combined, phrase) {
			subScore += 0.3
		}
	}
	for _, raw := range urlPattern.FindAllString(b.body, -1) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		host := u.Host
		for _, tld := range suspiciousTLDs {
			if strings.HasSuffix(host, tld) {
				subScore += 0.2
				break
			}
		}
	}

	if subScore > 0.5 {
		b.isSpam = true
		b.score = math.Max(0, b.score-subScore)
	}
}

func (b *verdictBuilder) applyUrgency() {
	if b.isSpam {
		return
	}
	subjectLower := strings.ToLower(b.subject)
	for _, word := range urgencyWords {
		if strings.Contains(subjectLower, word) {
			b.score += 0.1
			b.importanceIndicators = append(b.importanceIndicators, "Urgency indicated in subject")
			return
		}
	}
}

func (b *verdictBuilder) applyPortalPhrases() {
	bodyLower := strings.ToLower(b.body)
	for _, phrase := range portalPhrases {
		if strings.Contains(bodyLower, phrase) {
			b.isUniversityNotice = true
			b.score += 0.2
			b.importanceIndicators = append(b.importanceIndicators, "References university portal")
			return
		}
	}
}

func (b *verdictBuilder) applyUniversityLock() {
	if b.isUniversityNotice && !b.isSpam {
		b.score = math.Max(b.score, DefaultThreshold)
	}
}

// build finalizes the verdict. The importance flag is always the
// threshold comparison computed here; score floors set by earlier steps
// are their only lever over the final flag.
func (b *verdictBuilder) build() *Verdict {
	threshold := DefaultThreshold
	if b.policy != nil {
		threshold = b.policy.Threshold
	}

	isImportant := b.score >= threshold
	score := math.Max(0, math.Min(1, b.score))

	return &Verdict{
		IsSpam:               b.isSpam,
		IsImportant:          isImportant,
		IsUniversityNotice:   b.isUniversityNotice,
		Category:             b.category,
		PriorityScore:        score,
		SpamIndicators:       b.spamIndicators,
		ImportanceIndicators: b.importanceIndicators,
	}
}

// SenderDomain extracts the lowercased domain of a sender address: the
// substring after the last '@', or the whole string when there is none.
func SenderDomain(sender string) string {
	return senderDomain(sender)
}

func senderDomain(sender string) string {
	if idx := strings.LastIndex(sender, "@"); idx >= 0 {
		return strings.ToLower(sender[idx+1:])
	}
	return strings.ToLower(sender)
}

// tokenize splits lowercased text into alphanumeric runs, preserving
// first-appearance order.
func tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}

// matchKeywords returns the distinct tokens present in the keyword set,
// ordered by first appearance in the token stream. The ordering makes
// the "first N matches" display deterministic.
func matchKeywords(tokens []string, keywords map[string]struct{}) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var matches []string
	for _, tok := range tokens {
		if _, ok := keywords[tok]; !ok {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		matches = append(matches, tok)
	}
	return matches
}

func isImportantCategory(c Category) bool {
	return c == CategoryAcademic || c == CategoryAdministrative || c == CategoryDeadline
}

// isAllUpper reports whether s contains at least one cased rune and no
// lowercase runes.
func isAllUpper(s string) bool {
	hasUpper := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}
