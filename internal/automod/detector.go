package automod

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wardenbot/discord-warden/internal/models"
)

// emojiPattern matches custom platform emoji tokens and the common unicode
// emoji blocks.
var emojiPattern = regexp.MustCompile(`<a?:\w+:\d+>|[\x{1F300}-\x{1F9FF}]`)

// minCapsLength is the shortest message the caps check applies to; short
// messages in all caps are usually emphasis, not shouting.
const minCapsLength = 10

// Message is the detector's view of one inbound message.
type Message struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	Content   string
	Mentions  int
	RoleIDs   []string // the author's roles
}

// Finding is one rule violation detected in a message.
type Finding struct {
	Type     models.ViolationType
	Severity int
}

// Detector runs the per-message rule checks. All checks are pure given the
// guild config except the spam check, which updates the author's sliding
// window.
type Detector struct {
	configs *ConfigStore
	spam    *SpamTracker
	logger  *zap.Logger
}

func NewDetector(configs *ConfigStore, spam *SpamTracker, logger *zap.Logger) *Detector {
	return &Detector{
		configs: configs,
		spam:    spam,
		logger:  logger.Named("detector"),
	}
}

// Evaluate runs every check against one message and returns the findings
// in check order. Authors holding a whitelisted role produce no findings
// and leave the spam window untouched. Callers must hold the author's user
// lock so concurrent messages cannot lose spam-window updates.
func (d *Detector) Evaluate(msg Message, now time.Time) []Finding {
	if d.configs.IsWhitelisted(msg.GuildID, msg.RoleIDs) {
		return nil
	}

	cfg := d.configs.Get(msg.GuildID)
	var findings []Finding

	if d.spam.Observe(msg.GuildID, msg.AuthorID, now, cfg.Timeframe, cfg.MaxMessages) {
		findings = append(findings, Finding{models.ViolationSpam, 2})
	}

	if utf8.RuneCountInString(msg.Content) > minCapsLength && capsRatio(msg.Content) > cfg.CapsThreshold {
		findings = append(findings, Finding{models.ViolationExcessiveCaps, 1})
	}

	if msg.Mentions > cfg.MaxMentions {
		findings = append(findings, Finding{models.ViolationMentionSpam, 2})
	}

	if lineCount(msg.Content) > cfg.MaxLines {
		findings = append(findings, Finding{models.ViolationLineSpam, 1})
	}

	if len(emojiPattern.FindAllString(msg.Content, -1)) > cfg.MaxEmojis {
		findings = append(findings, Finding{models.ViolationEmojiSpam, 1})
	}

	if containsBlockedWord(msg.Content, cfg.BlockedWords) {
		findings = append(findings, Finding{models.ViolationBlockedWords, 3})
	}

	return findings
}

// Worst selects the finding to act on: highest severity, ties broken by
// check order.
func Worst(findings []Finding) (Finding, bool) {
	if len(findings) == 0 {
		return Finding{}, false
	}
	worst := findings[0]
	for _, f := range findings[1:] {
		if f.Severity > worst.Severity {
			worst = f
		}
	}
	return worst, true
}

// capsRatio is the share of uppercase letters over the message's total
// rune count.
func capsRatio(content string) float64 {
	total := 0
	upper := 0
	for _, r := range content {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}

func lineCount(content string) int {
	if content == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(content, "\n"), "\n"))
}

func containsBlockedWord(content string, blocked []string) bool {
	if len(blocked) == 0 {
		return false
	}
	lower := strings.ToLower(content)
	for _, word := range blocked {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			return true
		}
	}
	return false
}
